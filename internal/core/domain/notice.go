package domain

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient status line tied to the outcome of one operation.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}
