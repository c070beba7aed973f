package models

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// NewPost builds an unsaved post stamped with the current time.
// The store assigns the ID when the post is created.
func NewPost(title, content, author string) *Post {
	p := &Post{
		Title:   title,
		Content: content,
		Author:  author,
	}
	p.BeforeCreate()
	return p
}

// Validate checks that title, content and author are present and that the
// post carries a creation time.
func (p *Post) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, fe.Field())
	}
	return verr
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}
