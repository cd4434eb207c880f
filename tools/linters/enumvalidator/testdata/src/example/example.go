package example

type EmailStatus string

const (
	StatusSent      EmailStatus = "sent"
	StatusDelivered EmailStatus = "delivered"
)

type record struct {
	Status EmailStatus
	Note   string
}

func assignments() {
	var r record
	r.Status = StatusSent
	r.Status = "delivered" // want `enum field Status assigned string literal; use defined constant instead`
	r.Note = "free text is fine"
	_ = r
}
