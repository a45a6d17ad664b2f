package model

import "strconv"

// Thread is a discussion thread of the configured forum.
type Thread struct {
	ID        int64  `json:"id"`
	Forum     string `json:"forum"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	IsClosed  bool   `json:"is_closed"`
	IsDeleted bool   `json:"is_deleted"`
	IsSpam    bool   `json:"is_spam"`
}

// Equal compares threads by primary key.
func (t Thread) Equal(other Thread) bool {
	return t.ID == other.ID
}

// String returns the thread title.
func (t Thread) String() string {
	return t.Title
}

// PrimaryKey returns the thread id.
func (t Thread) PrimaryKey() int64 {
	return t.ID
}

// FieldValue returns the value of a local field by name.
func (t Thread) FieldValue(name string) (any, bool) {
	switch name {
	case FieldID:
		return t.ID, true
	case FieldForum:
		return t.Forum, true
	case FieldTitle:
		return t.Title, true
	case FieldLink:
		return t.Link, true
	case FieldIsClosed:
		return t.IsClosed, true
	case FieldIsDeleted:
		return t.IsDeleted, true
	case FieldIsSpam:
		return t.IsSpam, true
	}
	return nil, false
}

// ThreadRef is the Post to Thread relation. A nil Thread means the referenced
// thread was not among the threads available when the post was assembled; ID
// still holds the remote thread id.
type ThreadRef struct {
	ID     int64   `json:"id"`
	Thread *Thread `json:"thread,omitempty"`
}

// Resolved reports whether the referenced thread is known.
func (r ThreadRef) Resolved() bool {
	return r.Thread != nil
}

// String returns the thread title, or the bare id when unresolved.
func (r ThreadRef) String() string {
	if r.Thread != nil {
		return r.Thread.String()
	}
	return strconv.FormatInt(r.ID, 10)
}

// Post is a comment inside a thread.
type Post struct {
	ID         int64     `json:"id"`
	Forum      string    `json:"forum"`
	Message    string    `json:"message"`
	IsApproved bool      `json:"is_approved"`
	IsSpam     bool      `json:"is_spam"`
	IsDeleted  bool      `json:"is_deleted"`
	Thread     ThreadRef `json:"thread"`
}

// Equal compares posts by primary key.
func (p Post) Equal(other Post) bool {
	return p.ID == other.ID
}

// String returns the message, or "Empty message" for blank posts.
func (p Post) String() string {
	if p.Message == "" {
		return "Empty message"
	}
	return p.Message
}

// PrimaryKey returns the post id.
func (p Post) PrimaryKey() int64 {
	return p.ID
}

// FieldValue returns the value of a local field by name. The thread field
// yields the referenced thread id.
func (p Post) FieldValue(name string) (any, bool) {
	switch name {
	case FieldID:
		return p.ID, true
	case FieldForum:
		return p.Forum, true
	case FieldMessage:
		return p.Message, true
	case FieldIsApproved:
		return p.IsApproved, true
	case FieldIsSpam:
		return p.IsSpam, true
	case FieldIsDeleted:
		return p.IsDeleted, true
	case FieldThread:
		return p.Thread.ID, true
	}
	return nil, false
}
