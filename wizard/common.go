package wizard

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/compository/app/common"
	"github.com/compository/app/pretty"
	"github.com/compository/app/workflow"
)

const (
	newline = '\n'
)

var (
	input io.Reader = os.Stdin
)

type Validator func(string) bool

func memberValidation(members []string, erratic string) Validator {
	return func(reply string) bool {
		for _, member := range members {
			if reply == member {
				return true
			}
		}
		common.Stdout("%s%s%s\n\n", pretty.Red, erratic, pretty.Reset)
		return false
	}
}

func nameValidation(erratic string) Validator {
	return func(reply string) bool {
		if !workflow.CanSubmit(reply) {
			common.Stdout("%s%s%s\n\n", pretty.Red, erratic, pretty.Reset)
			return false
		}
		return true
	}
}

func ask(question, defaults string, validator Validator) (string, error) {
	source := bufio.NewReader(input)
	for {
		common.Stdout("%s? %s%s %s[%s]:%s ", pretty.Green, pretty.Bold, question, pretty.Grey, defaults, pretty.Reset)
		reply, err := source.ReadString(newline)
		common.Stdout("\n")
		if err != nil && len(reply) == 0 {
			return "", err
		}
		reply = strings.TrimSpace(reply)
		if len(reply) == 0 {
			reply = defaults
		}
		if !validator(reply) {
			if err != nil {
				return "", err
			}
			continue
		}
		return reply, nil
	}
}

// AskName prompts for the name of a new DNA until a usable one is given.
func AskName(question string) (string, error) {
	if !pretty.Interactive {
		return "", ErrAnswerRequired
	}
	return ask(question, "", nameValidation("A DNA name cannot be blank."))
}
