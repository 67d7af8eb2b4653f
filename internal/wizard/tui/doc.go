// Package tui implements the full-screen terminal renderer for formwizard.
//
// Built on Bubble Tea, the renderer follows the Model-Update-View pattern:
// AppModel coordinates the screens and each screen owns its own model.
//
// # Screens
//
//   - Forms: pick a form from the catalog (bubbles/list)
//   - Step: fill the current group, one textinput per field
//   - Result: the submitted values, optionally stored as a record
//   - Records: the records held by the remote record store
//
// # Key Bindings
//
// On the step screen tab and shift+tab move between fields, ctrl+n advances
// to the next group, ctrl+p goes back, ctrl+s submits and esc returns to the
// form list. List forms add entries with ctrl+a and remove the focused entry
// with ctrl+d. Help text tracks which bindings are currently available; the
// submit binding of a multi-step wizard is only offered once every group is
// valid.
//
// Validation errors are shown for touched fields only. A field becomes
// touched when an advance is blocked or a single-page form fails to submit.
//
// # Usage Example
//
//	app, err := tui.NewAppModel(tui.Options{Catalog: catalog, Form: "registration"})
//	if err != nil {
//	    return err
//	}
//	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
//	    return err
//	}
package tui
