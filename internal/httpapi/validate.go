package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// pageQuery is the validated page position of a request.
type pageQuery struct {
	Page       int `validate:"min=1"`
	PerPage    int `validate:"min=1,ltefield=MaxPerPage"`
	MaxPerPage int `validate:"min=1"`
}

// parsePageQuery reads the page path value and the per_page query parameter.
func (s *Server) parsePageQuery(pageParam string, query url.Values) (pageQuery, error) {
	q := pageQuery{PerPage: s.cfg.PageSize, MaxPerPage: s.cfg.MaxPageSize}

	page, err := strconv.Atoi(pageParam)
	if err != nil {
		return q, fmt.Errorf("page must be an integer, got %q", pageParam)
	}
	q.Page = page

	if raw := query.Get("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("per_page must be an integer, got %q", raw)
		}
		q.PerPage = perPage
	}

	if err := getValidator().Struct(q); err != nil {
		return q, validationMessage(err, q.MaxPerPage)
	}
	return q, nil
}

// validationMessage flattens validator errors into one readable error.
func validationMessage(err error, maxPerPage int) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Page":
			parts = append(parts, "page must be >= 1")
		case "PerPage":
			parts = append(parts, fmt.Sprintf("per_page must be between 1 and %d", maxPerPage))
		default:
			parts = append(parts, fe.Field()+" failed on "+fe.Tag())
		}
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}
