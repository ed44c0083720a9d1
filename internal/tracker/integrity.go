package tracker

import (
	"errors"

	"github.com/julianstephens/habithouse/internal/logger"
	"github.com/julianstephens/habithouse/internal/models"
	"github.com/julianstephens/habithouse/internal/validation"
)

// errNothingToSave aborts a transaction without treating it as a failure.
var errNothingToSave = errors.New("nothing to save")

// Validate checks the stored document for inconsistencies.
func (t *Tracker) Validate() (validation.ValidationResult, error) {
	var result validation.ValidationResult
	err := t.view(func(doc *models.Document) error {
		result = validation.New().ValidateDocument(doc)
		return nil
	})
	return result, err
}

// Repair fixes what Validate can fix automatically and saves the result.
// Nothing is written when there is nothing to fix.
func (t *Tracker) Repair() ([]validation.FixAction, error) {
	var actions []validation.FixAction
	err := t.transact(func(doc *models.Document) error {
		v := validation.New()
		actions = v.Fix(doc, v.ValidateDocument(doc))
		if len(actions) == 0 {
			return errNothingToSave
		}
		return nil
	})
	if err == errNothingToSave {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	for _, a := range actions {
		logger.Info("Repaired document", "conflict", a.SourceConflict.Type, "action", a.Action)
	}
	return actions, nil
}
