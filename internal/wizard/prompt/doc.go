// Package prompt renders forms as a sequence of line prompts.
//
// The Runner drives a wizard, a single-page form or a list form through a
// PromptDriver. SurveyDriver prompts on the terminal with survey; tests
// script the answers instead.
//
//	r := prompt.New()
//	values, err := r.RunDefinition(ctx, wizard.Registration())
//	if errors.Is(err, prompt.ErrAborted) {
//	    return nil
//	}
package prompt
