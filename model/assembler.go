package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ParseID reads an id given either as a JSON number or a numeric string.
func ParseID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("id is missing")
	}

	text, err := idText(raw)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not an integer", text)
	}
	return id, nil
}

func idText(raw json.RawMessage) (string, error) {
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a number or numeric string")
	}
	return n.String(), nil
}

// object is a decoded remote JSON object read through a Meta translation table.
type object struct {
	meta    *Meta
	members map[string]json.RawMessage
}

func decode(meta *Meta, raw json.RawMessage) (*object, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, errMalformed(meta.Entity(), "", err)
	}
	if members == nil {
		return nil, errMalformed(meta.Entity(), "", fmt.Errorf("expected an object"))
	}
	return &object{meta: meta, members: members}, nil
}

func (o *object) member(field string) (json.RawMessage, bool) {
	remote, err := o.meta.Remote(field)
	if err != nil {
		return nil, false
	}
	raw, ok := o.members[remote]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (o *object) id(field string) (int64, error) {
	raw, _ := o.member(field)
	id, err := ParseID(raw)
	if err != nil {
		return 0, errMalformed(o.meta.Entity(), field, err)
	}
	return id, nil
}

func (o *object) str(field string) (string, error) {
	raw, ok := o.member(field)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errMalformed(o.meta.Entity(), field, err)
	}
	return s, nil
}

func (o *object) boolean(field string) (bool, error) {
	raw, ok := o.member(field)
	if !ok {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, errMalformed(o.meta.Entity(), field, err)
	}
	return b, nil
}

// AssembleThread builds a Thread from one remote thread object.
func AssembleThread(raw json.RawMessage) (Thread, error) {
	obj, err := decode(ThreadMeta, raw)
	if err != nil {
		return Thread{}, err
	}

	var t Thread
	if t.ID, err = obj.id(FieldID); err != nil {
		return Thread{}, err
	}
	if t.Forum, err = obj.str(FieldForum); err != nil {
		return Thread{}, err
	}
	if t.Title, err = obj.str(FieldTitle); err != nil {
		return Thread{}, err
	}
	if t.Link, err = obj.str(FieldLink); err != nil {
		return Thread{}, err
	}
	if t.IsClosed, err = obj.boolean(FieldIsClosed); err != nil {
		return Thread{}, err
	}
	if t.IsDeleted, err = obj.boolean(FieldIsDeleted); err != nil {
		return Thread{}, err
	}
	if t.IsSpam, err = obj.boolean(FieldIsSpam); err != nil {
		return Thread{}, err
	}
	return t, nil
}

// AssembleThreads assembles every element of a remote thread array.
func AssembleThreads(raw json.RawMessage) ([]Thread, error) {
	items, err := splitArray(ThreadMeta, raw)
	if err != nil {
		return nil, err
	}
	threads := make([]Thread, 0, len(items))
	for _, item := range items {
		t, err := AssembleThread(item)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, nil
}

// AssemblePost builds a Post from one remote post object, resolving its thread
// against threads. A thread id missing from threads leaves the reference
// unresolved; it is not an error.
func AssemblePost(raw json.RawMessage, threads []Thread) (Post, error) {
	obj, err := decode(PostMeta, raw)
	if err != nil {
		return Post{}, err
	}

	var p Post
	if p.ID, err = obj.id(FieldID); err != nil {
		return Post{}, err
	}
	if p.Forum, err = obj.str(FieldForum); err != nil {
		return Post{}, err
	}
	if p.Message, err = obj.str(FieldMessage); err != nil {
		return Post{}, err
	}
	if p.IsApproved, err = obj.boolean(FieldIsApproved); err != nil {
		return Post{}, err
	}
	if p.IsSpam, err = obj.boolean(FieldIsSpam); err != nil {
		return Post{}, err
	}
	if p.IsDeleted, err = obj.boolean(FieldIsDeleted); err != nil {
		return Post{}, err
	}
	if p.Thread, err = obj.threadRef(threads); err != nil {
		return Post{}, err
	}
	return p, nil
}

// AssemblePosts assembles every element of a remote post array.
func AssemblePosts(raw json.RawMessage, threads []Thread) ([]Post, error) {
	items, err := splitArray(PostMeta, raw)
	if err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(items))
	for _, item := range items {
		p, err := AssemblePost(item, threads)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// threadRef reads the thread member, which is an id or, when the remote side
// expanded the relation, a thread object.
func (o *object) threadRef(threads []Thread) (ThreadRef, error) {
	raw, ok := o.member(FieldThread)
	if !ok {
		return ThreadRef{}, errMalformed(o.meta.Entity(), FieldThread, fmt.Errorf("thread is missing"))
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		t, err := AssembleThread(trimmed)
		if err != nil {
			return ThreadRef{}, err
		}
		raw = json.RawMessage(strconv.FormatInt(t.ID, 10))
	}

	text, err := idText(raw)
	if err != nil {
		return ThreadRef{}, errMalformed(o.meta.Entity(), FieldThread, err)
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return ThreadRef{}, errMalformed(o.meta.Entity(), FieldThread, fmt.Errorf("thread %q is not an integer", text))
	}

	ref := ThreadRef{ID: id}
	for i := range threads {
		if strconv.FormatInt(threads[i].ID, 10) == text {
			t := threads[i]
			ref.Thread = &t
			break
		}
	}
	return ref, nil
}

func splitArray(meta *Meta, raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errMalformed(meta.Entity(), "", fmt.Errorf("expected an array: %w", err))
	}
	return items, nil
}
