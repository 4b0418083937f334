package checkin

import "context"

// ValidationValid is the validation result accepted as a successful write.
const ValidationValid = "VALID"

// PatientDirectory resolves a patient name to its identifier.
// Zero or several matches both yield found == false.
type PatientDirectory interface {
	FindPatientByName(ctx context.Context, name string) (id string, found bool, err error)
}

// ActionResult is the object store's synchronous verdict on a proposed write.
type ActionResult struct {
	ValidationResult string
	Details          map[string]any
	Edits            map[string]any
}

// ObjectWriter submits "create entity" actions to the object store.
type ObjectWriter interface {
	CreateEntity(ctx context.Context, kind EntityKind, fields map[string]any) (*ActionResult, error)
}

// TextClassifier runs a single chat-style completion: an instruction followed by the user input.
type TextClassifier interface {
	Complete(ctx context.Context, instruction, input string) (string, error)
}
