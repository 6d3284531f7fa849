// Package validation is the input stage in front of the service: it trims raw request
// values, runs the field rules and hands back values the service can trust.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gfdmit/web-forum/feed-service/internal/apperr"
	"github.com/go-playground/validator/v10"
)

const (
	MsgPostFailed   = "Validation failed, entered post data is incorrect."
	MsgSignupFailed = "Validation failed."
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	return v
}

type postInput struct {
	Title   string `json:"title" validate:"min=5"`
	Content string `json:"content" validate:"min=5"`
}

// Post is title and content that passed validation.
type Post struct {
	title   string
	content string
}

func (p Post) Title() string   { return p.title }
func (p Post) Content() string { return p.content }

// NewPost trims title and content and requires at least 5 characters in each.
func NewPost(title, content string) (Post, error) {
	in := postInput{
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
	}
	if err := check(in, MsgPostFailed, postMessages); err != nil {
		return Post{}, err
	}
	return Post{title: in.Title, content: in.Content}, nil
}

type signupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"min=5,bcryptmax"`
}

// Signup is account data that passed validation; Email is lower-cased.
type Signup struct {
	email    string
	name     string
	password string
}

func (s Signup) Email() string    { return s.email }
func (s Signup) Name() string     { return s.name }
func (s Signup) Password() string { return s.password }

func NewSignup(email, name, password string) (Signup, error) {
	in := signupInput{
		Email:    NormalizeEmail(email),
		Name:     strings.TrimSpace(name),
		Password: strings.TrimSpace(password),
	}
	if err := check(in, MsgSignupFailed, signupMessages); err != nil {
		return Signup{}, err
	}
	return Signup{email: in.Email, name: in.Name, password: in.Password}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var postMessages = map[string]string{
	"title":   "Title length should be atleast 5.",
	"content": "Content length should be atleast 5.",
}

var signupMessages = map[string]string{
	"email":              "Please enter a valid email.",
	"name":               "name should not be empty.",
	"password":           "Password length should be atleast 5.",
	"password.bcryptmax": "Password must not be longer than 72 bytes.",
}

func check(in any, message string, messages map[string]string) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("validate input", err)
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fe.Field(),
			Value:   fieldValue(fe),
			Message: fieldMessage(messages, fe),
		})
	}
	return apperr.Validation(message, fields)
}

func fieldMessage(messages map[string]string, fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return messages[fe.Field()]
}

func fieldValue(fe validator.FieldError) string {
	if fe.Field() == "password" {
		return ""
	}
	s, _ := fe.Value().(string)
	return s
}
