package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/internal/chat"
	"github.com/vistral/vistral/internal/health"
	"github.com/vistral/vistral/internal/history"
	"github.com/vistral/vistral/internal/viewmodel"
)

// Processing and chat calls intentionally carry no deadline: the backend
// pipeline can run for minutes and the user watches the spinner, not a
// timeout.

func processURLCmd(client *api.Client, youtubeURL string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.ProcessVideoURL(context.Background(), youtubeURL)
		if err != nil {
			return processDoneMsg{err: err}
		}
		return processDoneMsg{record: viewmodel.NormalizeRecord(resp)}
	}
}

func processFileCmd(client *api.Client, path string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.ProcessVideoFile(context.Background(), path)
		if err != nil {
			return processDoneMsg{err: err}
		}
		return processDoneMsg{record: viewmodel.NormalizeRecord(resp)}
	}
}

func loadHistoryCmd(svc *history.Service) tea.Cmd {
	return func() tea.Msg {
		items, message, err := svc.List(context.Background())
		return historyLoadedMsg{items: items, message: message, err: err}
	}
}

func loadDetailsCmd(svc *history.Service, videoID string) tea.Cmd {
	return func() tea.Msg {
		record, source, err := svc.LoadDetails(context.Background(), videoID)
		return detailsLoadedMsg{record: record, source: source, err: err}
	}
}

func startSessionCmd(controller *chat.Controller) tea.Cmd {
	return func() tea.Msg {
		return sessionStartedMsg{err: controller.StartSession(context.Background())}
	}
}

func sendCmd(controller *chat.Controller, pending *chat.PendingSend) tea.Cmd {
	return func() tea.Msg {
		resp, err := controller.Send(context.Background(), pending)
		return sendDoneMsg{placeholderID: pending.PlaceholderID, resp: resp, err: err}
	}
}

func revealTickCmd(interval time.Duration, gen int) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return revealTickMsg{gen: gen}
	})
}

func highlightCmd(window time.Duration, gen int) tea.Cmd {
	return tea.Tick(window, func(time.Time) tea.Msg {
		return highlightExpiredMsg{gen: gen}
	})
}

func noticeCmd(gen int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return noticeExpiredMsg{gen: gen}
	})
}

// waitHealthCmd blocks on the monitor's channel and re-arms itself from
// Update after each snapshot lands.
func waitHealthCmd(updates <-chan health.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return healthUpdateMsg{snap: snap}
	}
}
