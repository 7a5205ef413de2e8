package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/i18n"
)

const (
	maxBarWidth   = 60
	recentEntries = 5
)

// ProgressMsg carries a downloader snapshot into the program.
type ProgressMsg downloader.Info

// DoneMsg ends the program once the work behind the bar has returned.
type DoneMsg struct {
	Err error
}

type ProgressModel struct {
	header Config
	title  string
	bar    progress.Model
	help   help.Model
	keys   ProgressKeyMap
	cancel context.CancelFunc

	info       downloader.Info
	recent     []string
	width      int
	details    bool
	cancelling bool
	done       bool
	err        error
}

// NewProgressModel builds the bar for one batch. cancel is invoked once when the user asks
// to stop; the program keeps running until a DoneMsg arrives.
func NewProgressModel(header Config, title string, cancel context.CancelFunc) ProgressModel {
	return ProgressModel{
		header: header,
		title:  title,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:   help.New(),
		keys:   DefaultProgressKeyMap(),
		cancel: cancel,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(maxBarWidth, max(10, msg.Width-4))
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			if !m.cancelling {
				m.cancelling = true
				if m.cancel != nil {
					m.cancel()
				}
			}
		case key.Matches(msg, m.keys.Details):
			m.details = !m.details
		}
	case ProgressMsg:
		info := downloader.Info(msg)
		if info.CurrentFile != "" && info.CurrentFile != m.info.CurrentFile {
			m.recent = append(m.recent, info.CurrentFile)
			if len(m.recent) > recentEntries {
				m.recent = m.recent[len(m.recent)-recentEntries:]
			}
		}
		m.info = info
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var out strings.Builder
	if m.width > 0 {
		out.WriteString(Header(m.header, m.width))
		out.WriteString("\n")
	}
	out.WriteString(TitleStyle.Render(m.title))
	if m.info.CurrentGroup != "" {
		out.WriteString(" ")
		out.WriteString(MutedStyle.Render(m.info.CurrentGroup))
	}
	out.WriteString("\n")
	out.WriteString(PanelStyle.Render(m.bar.ViewAs(m.info.Fraction())))
	out.WriteString("\n")
	out.WriteString(PanelStyle.Render(Stats(m.info)))
	out.WriteString("\n")

	if problems := problemLine(m.info); problems != "" {
		out.WriteString(PanelStyle.Render(ErrorStyle.Render(problems)))
		out.WriteString("\n")
	}
	if m.details {
		for _, file := range m.recent {
			out.WriteString(PanelStyle.Render(MutedStyle.Render(file)))
			out.WriteString("\n")
		}
	}

	switch {
	case m.done && m.err != nil:
		out.WriteString(ErrorIcon(true) + " " + m.err.Error())
	case m.done:
		out.WriteString(SuccessIcon(true) + " " + i18n.T("tui.progress.done"))
	case m.cancelling:
		out.WriteString(WarningStyle.Render(i18n.T("tui.progress.cancelling")))
	default:
		out.WriteString(m.help.View(m.keys))
	}
	out.WriteString("\n")
	return out.String()
}

// Err is the error the finished work reported.
func (m ProgressModel) Err() error {
	return m.err
}

// Stats is the one-line item, byte, speed and ETA summary shared with the plain renderer.
func Stats(info downloader.Info) string {
	parts := []string{fmt.Sprintf("%d/%d", info.Settled(), info.TotalItems)}
	if info.TotalBytes > 0 {
		parts = append(parts, fmt.Sprintf("%s/%s", FormatBytes(info.DownloadedBytes), FormatBytes(info.TotalBytes)))
	} else if info.DownloadedBytes > 0 {
		parts = append(parts, FormatBytes(info.DownloadedBytes))
	}
	if info.Speed > 0 {
		parts = append(parts, FormatBytes(int64(info.Speed))+"/s")
	}
	if info.ETA > 0 && !info.Finished {
		parts = append(parts, "ETA "+info.ETA.Round(time.Second).String())
	}
	return strings.Join(parts, " · ")
}

func problemLine(info downloader.Info) string {
	parts := make([]string, 0, 3)
	if info.FailedItems > 0 {
		parts = append(parts, i18n.T("tui.progress.failed", i18n.Tvars{Count: info.FailedItems}))
	}
	if info.BlockedItems > 0 {
		parts = append(parts, i18n.T("tui.progress.blocked", i18n.Tvars{Count: info.BlockedItems}))
	}
	if info.CancelledItems > 0 {
		parts = append(parts, i18n.T("tui.progress.cancelled", i18n.Tvars{Count: info.CancelledItems}))
	}
	return strings.Join(parts, ", ")
}

func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
