package forecast

import "fmt"

// ItemError error de precondición asociado a un artículo concreto (no encontrado, sin historial).
// Envuelve el sentinel de dominio para que los handlers lo mapeen con errors.Is.
type ItemError struct {
	ItemID   string
	ItemName string
	Reason   string
	Err      error
}

func (e *ItemError) Error() string {
	name := e.ItemName
	if name == "" {
		name = e.ItemID
	}
	return fmt.Sprintf("%s: %s", name, e.Reason)
}

func (e *ItemError) Unwrap() error { return e.Err }
