package model

// Local field names.
const (
	FieldID         = "id"
	FieldForum      = "forum"
	FieldTitle      = "title"
	FieldLink       = "link"
	FieldIsClosed   = "is_closed"
	FieldIsDeleted  = "is_deleted"
	FieldIsSpam     = "is_spam"
	FieldMessage    = "message"
	FieldIsApproved = "is_approved"
	FieldThread     = "thread"
)

// FieldKind describes the value stored in a field.
type FieldKind string

const (
	KindInteger    FieldKind = "integer"
	KindString     FieldKind = "string"
	KindText       FieldKind = "text"
	KindURL        FieldKind = "url"
	KindBoolean    FieldKind = "boolean"
	KindForeignKey FieldKind = "foreign_key"
)

// Field describes one local attribute and the remote JSON member it comes from.
type Field struct {
	Name       string    `json:"name"`
	Remote     string    `json:"remote"`
	Kind       FieldKind `json:"kind"`
	PrimaryKey bool      `json:"primary_key,omitempty"`
	Blank      bool      `json:"blank,omitempty"`
	MaxLength  int       `json:"max_length,omitempty"`
	Related    string    `json:"related,omitempty"`
}

// Meta is the static schema of one entity kind.
type Meta struct {
	entity string
	fields []Field
	index  map[string]int
}

func newMeta(entity string, fields []Field) *Meta {
	m := &Meta{entity: entity, fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		m.index[f.Name] = i
	}
	return m
}

// Entity returns the entity name, "thread" or "post".
func (m *Meta) Entity() string {
	return m.entity
}

// GetField returns the named field or a FieldDoesNotExist error.
func (m *Meta) GetField(name string) (Field, error) {
	i, ok := m.index[name]
	if !ok {
		return Field{}, errFieldDoesNotExist(m.entity, name)
	}
	return m.fields[i], nil
}

// Fields returns the fields in declaration order.
func (m *Meta) Fields() []Field {
	return append([]Field(nil), m.fields...)
}

// Remote returns the remote member name for a local field.
func (m *Meta) Remote(name string) (string, error) {
	f, err := m.GetField(name)
	if err != nil {
		return "", err
	}
	return f.Remote, nil
}

// ThreadMeta is the Thread schema. Remote names are case-sensitive.
var ThreadMeta = newMeta("thread", []Field{
	{Name: FieldForum, Remote: "forum", Kind: KindString, MaxLength: 100},
	{Name: FieldID, Remote: "id", Kind: KindInteger, PrimaryKey: true},
	{Name: FieldIsClosed, Remote: "isClosed", Kind: KindBoolean},
	{Name: FieldIsDeleted, Remote: "isDeleted", Kind: KindBoolean},
	{Name: FieldIsSpam, Remote: "isSpam", Kind: KindBoolean},
	{Name: FieldLink, Remote: "link", Kind: KindURL},
	{Name: FieldTitle, Remote: "title", Kind: KindString, MaxLength: 100},
})

// PostMeta is the Post schema. Remote names are case-sensitive.
var PostMeta = newMeta("post", []Field{
	{Name: FieldForum, Remote: "forum", Kind: KindString, MaxLength: 100},
	{Name: FieldID, Remote: "id", Kind: KindInteger, PrimaryKey: true},
	{Name: FieldIsApproved, Remote: "isApproved", Kind: KindBoolean},
	{Name: FieldIsDeleted, Remote: "isDeleted", Kind: KindBoolean},
	{Name: FieldIsSpam, Remote: "isSpam", Kind: KindBoolean},
	{Name: FieldMessage, Remote: "raw_message", Kind: KindText, Blank: true},
	{Name: FieldThread, Remote: "thread", Kind: KindForeignKey, Related: "thread"},
})
