package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/compository/app/common"
	"github.com/compository/app/compository"
	"github.com/compository/app/installer"
)

// InstallOverlay is the modal shown after a DNA file was generated. It offers to
// install the DNA into the runtime or to save the file for later.
type InstallOverlay struct {
	ctx     context.Context
	styles  *Styles
	dialog  *installer.Dialog
	dnaFile *compository.DnaFile
	hash    string

	installing bool
	saving     bool
	savedTo    string
	failure    error
}

func NewInstallOverlay(ctx context.Context, styles *Styles, dialog *installer.Dialog, dnaFile *compository.DnaFile) *InstallOverlay {
	return &InstallOverlay{
		ctx:     ctx,
		styles:  styles,
		dialog:  dialog,
		dnaFile: dnaFile,
		hash:    hashOf(dnaFile),
	}
}

func hashOf(dnaFile *compository.DnaFile) string {
	if dnaFile == nil {
		return ""
	}
	hash, err := dnaFile.Hash()
	if err != nil {
		common.Uncritical("dna hash", err)
		return ""
	}
	return hash.String()
}

func (it *InstallOverlay) busy() bool {
	return it.installing || it.saving
}

func (it *InstallOverlay) install() tea.Cmd {
	ctx, dialog, dnaFile := it.ctx, it.dialog, it.dnaFile
	return func() tea.Msg {
		installed, err := dialog.Install(ctx, dnaFile)
		return installedMsg{installed: installed, err: err}
	}
}

func (it *InstallOverlay) save() tea.Cmd {
	dialog, dnaFile := it.dialog, it.dnaFile
	return func() tea.Msg {
		path, err := dialog.SaveFile(dnaFile)
		return savedMsg{name: dnaFile.Dna.Name, path: path, err: err}
	}
}

func (it *InstallOverlay) Update(msg tea.Msg) (*InstallOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case installedMsg:
		it.installing = false
		it.failure = msg.err
	case savedMsg:
		it.saving = false
		it.failure = msg.err
		if msg.err == nil {
			it.savedTo = msg.path
		}
	case tea.KeyMsg:
		if it.busy() {
			return it, nil
		}
		switch {
		case key.Matches(msg, keys.Install):
			it.installing = true
			it.failure = nil
			return it, it.install()
		case key.Matches(msg, keys.Save):
			it.saving = true
			it.failure = nil
			return it, it.save()
		case key.Matches(msg, keys.Back), msg.String() == "n":
			return it, func() tea.Msg { return closeInstallMsg{} }
		}
	}
	return it, nil
}

func (it *InstallOverlay) View() string {
	var b strings.Builder
	b.WriteString(it.styles.PanelTitle.Render("Install " + it.dnaFile.Dna.Name + "?"))
	b.WriteString("\n\n")
	b.WriteString(it.styles.StatusKey.Render("hash  "))
	b.WriteString(it.styles.StatusValue.Render(it.hash))
	b.WriteString("\n")
	b.WriteString(it.styles.StatusKey.Render("zomes "))
	names := make([]string, 0, len(it.dnaFile.Dna.Zomes))
	for _, zome := range it.dnaFile.Dna.Zomes {
		names = append(names, zome.Name)
	}
	b.WriteString(it.styles.StatusValue.Render(fmt.Sprintf("%d (%s)", len(names), strings.Join(names, ", "))))
	b.WriteString("\n")
	if len(it.dnaFile.Dna.Uid) > 0 {
		b.WriteString(it.styles.StatusKey.Render("uid   "))
		b.WriteString(it.styles.StatusValue.Render(it.dnaFile.Dna.Uid))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case it.installing:
		b.WriteString(it.styles.Info.Render("Installing ..."))
	case it.saving:
		b.WriteString(it.styles.Info.Render("Saving ..."))
	case it.failure != nil:
		b.WriteString(it.styles.Error.Render(it.failure.Error()))
	case len(it.savedTo) > 0:
		b.WriteString(it.styles.Success.Render("Saved to " + it.savedTo))
	default:
		b.WriteString(it.styles.Subtle.Render("The DNA runs under a new agent key once installed."))
	}
	return it.styles.Dialog.Render(b.String())
}

func (it *InstallOverlay) Hints() []KeyHint {
	if it.busy() {
		return nil
	}
	return []KeyHint{{"i", "Install"}, {"s", "Save file"}, {"esc", "Cancel"}}
}
