// Package wizard implements multi-step form state for the formwizard tools.
//
// A Wizard walks the user through an ordered list of field groups. Forward
// progress is gated on the validity of the current group, going back is always
// allowed, and submission succeeds only when every group is valid.
//
// # Validation
//
// Each Field carries an ordered chain of FieldValidator values. The chain is
// evaluated on every value change and stops at the first failing validator,
// whose key ("required", "email", "minlength") is kept on the field so the
// renderer can pick a message:
//
//	name := wizard.NewField("name", "Name", wizard.FieldText, wizard.Required{}, wizard.MinLength{N: 3})
//	email := wizard.NewField("email", "Email", wizard.FieldEmail, wizard.Required{}, wizard.Email{})
//
// Validation failures are never returned as errors. They are visible only
// through the Valid, Touched and Error fields of the affected Field.
//
// # Usage Example
//
//	w, err := wizard.Registration().Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = w.SetFieldValue("personal", "name", "Alice")
//	_ = w.SetFieldValue("personal", "email", "a@b.com")
//	w.Advance() // moves to "address"
//
//	if values, ok := w.Submit(); ok {
//	    fmt.Println(values["personal"]["name"])
//	}
//
// # Known Gaps
//
// The registration wizard declares password and confirmPassword fields but
// never compares them. A mismatching pair still submits.
//
// # Thread Safety
//
// Wizard, Form and ListForm are owned by a single UI session and are not safe
// for concurrent use. Hosts that share them across goroutines (the HTTP
// server) must serialise access.
package wizard
