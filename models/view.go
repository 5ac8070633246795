package models

// View is the storefront screen a device is looking at.
type View string

const (
	ViewHome        View = "home"
	ViewStore       View = "store"
	ViewServices    View = "services"
	ViewAbout       View = "about"
	ViewContact     View = "contact"
	ViewAppointment View = "appointment"
	ViewProfile     View = "profile"
)

func (v View) Valid() bool {
	switch v {
	case ViewHome, ViewStore, ViewServices, ViewAbout, ViewContact, ViewAppointment, ViewProfile:
		return true
	}
	return false
}
