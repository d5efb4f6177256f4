package interactive

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ToastType int

const (
	ToastInfo ToastType = iota
	ToastSuccess
	ToastWarning
	ToastError
)

const (
	toastDuration      = 4 * time.Second
	errorToastDuration = 8 * time.Second
	maxToasts          = 3
)

type Toast struct {
	ID      int64
	Type    ToastType
	Message string
}

// ToastMsg asks the app to show a toast.
type ToastMsg struct {
	Type     ToastType
	Message  string
	Duration time.Duration
}

// ToastTimeoutMsg removes an expired toast.
type ToastTimeoutMsg struct {
	ID int64
}

func ShowToast(message string, kind ToastType) tea.Cmd {
	duration := toastDuration
	if kind == ToastError {
		duration = errorToastDuration
	}
	return func() tea.Msg {
		return ToastMsg{Type: kind, Message: message, Duration: duration}
	}
}

func ShowErrorToast(message string) tea.Cmd {
	return ShowToast(message, ToastError)
}

func ShowSuccessToast(message string) tea.Cmd {
	return ShowToast(message, ToastSuccess)
}

func ShowInfoToast(message string) tea.Cmd {
	return ShowToast(message, ToastInfo)
}

// toastShelf keeps the few most recent toasts.
type toastShelf struct {
	next   int64
	toasts []Toast
}

func (it *toastShelf) push(msg ToastMsg) tea.Cmd {
	it.next++
	id := it.next
	it.toasts = append(it.toasts, Toast{ID: id, Type: msg.Type, Message: msg.Message})
	if len(it.toasts) > maxToasts {
		it.toasts = it.toasts[len(it.toasts)-maxToasts:]
	}
	return tea.Tick(msg.Duration, func(time.Time) tea.Msg {
		return ToastTimeoutMsg{ID: id}
	})
}

func (it *toastShelf) expire(id int64) {
	kept := it.toasts[:0]
	for _, toast := range it.toasts {
		if toast.ID != id {
			kept = append(kept, toast)
		}
	}
	it.toasts = kept
}

func (it *toastShelf) render(styles *Styles) []string {
	result := make([]string, 0, len(it.toasts))
	for _, toast := range it.toasts {
		style := styles.ToastInfo
		switch toast.Type {
		case ToastSuccess:
			style = styles.ToastSuccess
		case ToastWarning:
			style = styles.ToastWarning
		case ToastError:
			style = styles.ToastError
		}
		result = append(result, style.Render(toast.Message))
	}
	return result
}
