package form

import (
	"context"

	"github.com/alexanderramin/sectors/internal/api"
	"github.com/alexanderramin/sectors/internal/domain"
)

// FallbackErrorMessage is shown when a failure carries no usable text.
const FallbackErrorMessage = "An unexpected error occurred"

// Outcome is the result of one submission: Saved, ValidationFailure or
// GeneralFailure.
type Outcome interface {
	isOutcome()
}

// Saved carries the server's copy of the selection.
type Saved struct {
	Selection *domain.SavedSelection
	Created   bool
}

// ValidationFailure maps field names to messages.
type ValidationFailure struct {
	Fields map[string]string
	Detail string
}

// GeneralFailure is any failure that is not about individual fields.
type GeneralFailure struct {
	Message string
}

func (Saved) isOutcome()             {}
func (ValidationFailure) isOutcome() {}
func (GeneralFailure) isOutcome()    {}

// Saver is the part of the backend a submission needs.
type Saver interface {
	CreateSelection(ctx context.Context, req domain.SelectionRequest) (*domain.SavedSelection, error)
	UpdateSelection(ctx context.Context, req domain.SelectionRequest) (*domain.SavedSelection, error)
}

// Submission is a prepared save: the payload and whether it updates.
type Submission struct {
	Request domain.SelectionRequest
	Update  bool
}

// BeginSubmit clears previous errors, marks the form as saving and returns
// the payload to send. ok is false while another save is in flight.
func (c *Controller) BeginSubmit() (sub Submission, ok bool) {
	if c.saving {
		return Submission{}, false
	}
	c.ClearErrors()
	c.saving = true
	return Submission{Request: c.Request(), Update: c.IsUpdate()}, true
}

// FinishSubmit applies an outcome and clears the saving flag.
func (c *Controller) FinishSubmit(o Outcome) {
	c.saving = false
	switch o := o.(type) {
	case Saved:
		c.saved = o.Selection
	case ValidationFailure:
		c.generalErr = o.Detail
		c.fieldErrors = make(map[string]string, len(o.Fields))
		for k, v := range o.Fields {
			c.fieldErrors[k] = v
		}
	case GeneralFailure:
		c.generalErr = o.Message
	}
}

// Send issues exactly one create or update request. It never retries.
func Send(ctx context.Context, saver Saver, sub Submission) Outcome {
	var (
		sel *domain.SavedSelection
		err error
	)
	if sub.Update {
		sel, err = saver.UpdateSelection(ctx, sub.Request)
	} else {
		sel, err = saver.CreateSelection(ctx, sub.Request)
	}
	if err != nil {
		return Classify(err)
	}
	return Saved{Selection: sel, Created: !sub.Update}
}

// Submit runs a whole save against c: begin, send, finish. It returns nil
// if a save was already in progress.
func Submit(ctx context.Context, saver Saver, c *Controller) Outcome {
	sub, ok := c.BeginSubmit()
	if !ok {
		return nil
	}
	out := Send(ctx, saver, sub)
	c.FinishSubmit(out)
	return out
}

// Classify maps a save error onto a failure outcome.
func Classify(err error) Outcome {
	if reqErr, ok := api.AsRequestError(err); ok {
		if reqErr.HasFieldErrors() {
			return ValidationFailure{Fields: reqErr.Problem.Errors, Detail: reqErr.Problem.Detail}
		}
		return GeneralFailure{Message: messageOr(reqErr.Problem.Detail)}
	}
	if err == nil {
		return GeneralFailure{Message: FallbackErrorMessage}
	}
	return GeneralFailure{Message: messageOr(err.Error())}
}

func messageOr(msg string) string {
	if msg == "" {
		return FallbackErrorMessage
	}
	return msg
}
