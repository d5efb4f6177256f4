package wizard

import (
	"errors"

	"github.com/compository/app/common"
	"github.com/compository/app/pretty"
)

var (
	ErrConfirmationRequired = errors.New("confirmation required: use --force in non-interactive mode")
	ErrAnswerRequired       = errors.New("answer required: give it as a flag in non-interactive mode")
)

// Confirm asks a yes/no question, defaulting to no. With force it does not ask.
func Confirm(question string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if !pretty.Interactive {
		return false, ErrConfirmationRequired
	}

	validator := memberValidation([]string{"y", "Y", "n", "N"}, "Please answer 'y' or 'n'.")
	response, err := ask(question, "n", validator)
	if err != nil {
		return false, err
	}
	confirmed := response == "y" || response == "Y"
	if !confirmed {
		common.Stdout("%sOperation cancelled.%s\n", pretty.Grey, pretty.Reset)
	}
	return confirmed, nil
}
