package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/services"
)

// Prompter asks for input the user left off the command line.
type Prompter interface {
	// Credentials fills the empty fields of creds. Username is only asked for when register is set.
	Credentials(creds *models.Credentials, register bool) error
	// Decades returns the decades chosen from options.
	Decades(options []int) ([]int, error)
	// Confirm asks a yes/no question.
	Confirm(title string) (bool, error)
}

// huhPrompter renders prompts as huh forms.
type huhPrompter struct{}

func (huhPrompter) Credentials(creds *models.Credentials, register bool) error {
	var fields []huh.Field
	if register && creds.Username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Value(&creds.Username))
	}
	if creds.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&creds.Email))
	}
	if creds.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&creds.Password))
	}
	if len(fields) == 0 {
		return nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("run credentials prompt: %w", err)
	}
	return nil
}

func (huhPrompter) Decades(options []int) ([]int, error) {
	opts := make([]huh.Option[int], 0, len(options))
	for _, d := range options {
		opts = append(opts, huh.NewOption(strconv.Itoa(d)+"s", d))
	}

	var selected []int
	err := huh.NewMultiSelect[int]().
		Title("Select decades").
		Description("Use x/space to toggle. Leave empty for every decade.").
		Options(opts...).
		Value(&selected).
		Run()
	if err != nil {
		return nil, fmt.Errorf("run decade selector: %w", err)
	}
	return selected, nil
}

func (huhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	if err := huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok).Run(); err != nil {
		return false, fmt.Errorf("run confirm prompt: %w", err)
	}
	return ok, nil
}

// decadeOptions lists every decade the generators accept, up to and including the current one.
func decadeOptions(currentYear int) []int {
	var out []int
	for d := services.MinDecade; d <= currentYear-currentYear%10; d += 10 {
		out = append(out, d)
	}
	return out
}
