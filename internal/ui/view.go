package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/mattn/go-runewidth"

	"karolbroda.com/lyrhaze/internal/artwork"
	"karolbroda.com/lyrhaze/internal/colors"
)

const bannerText = "lyrhaze"

func (m Model) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.quitting {
		return ""
	}

	palette := m.display.Palette
	if palette == nil {
		palette = artwork.DefaultPalette()
	}

	if m.display.Track == nil && len(m.atmosphere.Lines()) == 0 {
		return m.renderWaitingScreen(palette, width, height)
	}

	return m.renderMainScreen(palette, width, height)
}

func (m Model) renderWaitingScreen(palette *artwork.Palette, width int, height int) string {
	banner := figure.NewFigure(bannerText, "small", true).Slicify()
	bannerWidth := 0
	for _, line := range banner {
		bannerWidth = max(bannerWidth, runewidth.StringWidth(line))
	}
	if bannerWidth > width {
		banner = []string{bannerText}
		bannerWidth = len(bannerText)
	}

	glow := colors.MixRGB(palette.Dim, palette.Accent, pulse(m.tickCount, 40))
	bannerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(glow))

	var block []string
	for _, line := range banner {
		padded := line + strings.Repeat(" ", bannerWidth-runewidth.StringWidth(line))
		block = append(block, centerText(bannerStyle.Render(padded), bannerWidth, width))
	}
	block = append(block, "")

	waitText := "awaiting music"
	waitStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Dim)).
		Italic(true)
	block = append(block, centerText(waitStyle.Render(waitText), len(waitText), width))

	pulseChars := []string{"·", "•", "●", "•"}
	pulseIdx := (m.tickCount / 4) % len(pulseChars)
	dotStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Accent))
	block = append(block, centerText(dotStyle.Render(pulseChars[pulseIdx]), 1, width))

	lines := make([]string, 0, height)
	for i := 0; i < (height-len(block))/2; i++ {
		lines = append(lines, "")
	}
	lines = append(lines, block...)

	return strings.Join(fitHeight(lines, height), "\n")
}

func (m Model) renderMainScreen(palette *artwork.Palette, width int, height int) string {
	var lines []string

	if !m.hideHeader {
		lines = append(lines, m.renderCompactHeader(palette, width, height)...)
	}

	lyricsHeight := m.lyricsHeight()

	switch {
	case len(m.atmosphere.Lines()) > 0:
		lines = append(lines, m.renderAtmosphere(palette, width, lyricsHeight)...)
	case m.err != nil:
		lines = append(lines, fitHeight(m.renderErrorSection(width, lyricsHeight), lyricsHeight)...)
	default:
		lines = append(lines, fitHeight(m.renderWaitingForLyrics(palette, width, lyricsHeight), lyricsHeight)...)
	}

	lines = fitHeight(lines, height-statusBarLines)
	lines = append(lines, m.renderStatusBar(palette, width))

	return strings.Join(lines, "\n")
}

func (m Model) renderAtmosphere(palette *artwork.Palette, width int, height int) []string {
	plain := m.termCaps != nil && m.termCaps.NoColor
	c := newCanvas(width, height, plain)

	if len(m.frame.Lines) == 0 {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))
		rows := c.Rows()
		rows[height/2] = centerText(style.Render("♪"), 1, width)
		return rows
	}

	c.drawFrame(m.frame, palette.Base, m.background)
	return c.Rows()
}

// artSize picks the album art size for the header; 0 means no art.
func (m Model) artSize(width int, height int) (int, int) {
	if m.display.Image == nil || (m.termCaps != nil && !m.termCaps.SupportsArt) {
		return 0, 0
	}
	if width < 50 || height < 25 {
		return 0, 0
	}
	if width < 80 {
		return 8, 4
	}
	return 12, 6
}

func (m Model) infoLineCount() int {
	trk := m.display.Track
	if trk == nil {
		return 1
	}
	if trk.Album != "" {
		return 3
	}
	return 2
}

// headerHeight must agree with what renderCompactHeader produces.
func (m Model) headerHeight() int {
	if m.hideHeader {
		return 0
	}
	height := m.height
	if height <= 0 {
		height = 24
	}
	_, artHeight := m.artSize(m.width, height)
	rows := max(artHeight, m.infoLineCount())

	h := 1 + rows + 1
	if m.durationMs() > 0 {
		h++
	}
	return h + 1
}

func (m Model) renderCompactHeader(palette *artwork.Palette, width int, height int) []string {
	var lines []string

	lines = append(lines, "")

	artWidth, artHeight := m.artSize(width, height)
	var artworkLines []string
	if artWidth > 0 {
		artworkLines = artwork.RenderHalfBlockArt(m.display.Image, artWidth, artHeight)
	}

	infoLines := m.renderTrackInfo(palette, width)
	rows := max(artHeight, len(infoLines))

	for i := 0; i < rows; i++ {
		var line strings.Builder

		if artWidth > 0 && i < len(artworkLines) {
			line.WriteString("  ")
			line.WriteString(artworkLines[i])
			line.WriteString("  ")
		} else if artWidth > 0 {
			line.WriteString(strings.Repeat(" ", artWidth+4))
		} else {
			line.WriteString("  ")
		}

		if i < len(infoLines) {
			line.WriteString(infoLines[i])
		}

		lines = append(lines, line.String())
	}

	lines = append(lines, "")

	if m.durationMs() > 0 {
		lines = append(lines, m.renderMinimalProgress(palette, width))
	}

	lines = append(lines, "")

	return lines
}

func (m Model) renderTrackInfo(palette *artwork.Palette, width int) []string {
	trk := m.display.Track
	if trk == nil {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Italic(true)
		return []string{style.Render("untitled")}
	}

	var lines []string

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Highlight)).
		Bold(true)

	artistStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(palette.Accent))

	maxWidth := max(width-20, 20)

	lines = append(lines, titleStyle.Render(truncate(trk.Title, maxWidth)))
	lines = append(lines, artistStyle.Render(truncate(trk.Artist, maxWidth)))

	if trk.Album != "" {
		albumStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color(palette.Dim))
		lines = append(lines, albumStyle.Render(truncate(trk.Album, maxWidth)))
	}

	return lines
}

func (m Model) durationMs() int64 {
	if trk := m.display.Track; trk != nil && trk.DurationMs > 0 {
		return trk.DurationMs
	}
	if m.wall != nil {
		return m.wall.DurationMs()
	}
	return 0
}

func (m Model) renderMinimalProgress(palette *artwork.Palette, width int) string {
	duration := m.durationMs()
	if duration <= 0 {
		return ""
	}

	barWidth := max(width-20, 20)

	position := m.clock.Now()
	progress := clamp(float64(position)/float64(duration), 0, 1)
	filledWidth := int(float64(barWidth) * progress)

	var bar strings.Builder

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Highlight))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Faint(true)

	for i := 0; i < barWidth; i++ {
		if i < filledWidth {
			bar.WriteString(filledStyle.Render("━"))
		} else if i == filledWidth {
			bar.WriteString(filledStyle.Render("●"))
		} else {
			bar.WriteString(emptyStyle.Render("─"))
		}
	}

	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))

	return fmt.Sprintf("  %s  %s  %s",
		timeStyle.Render(colors.FormatTime(position)),
		bar.String(),
		timeStyle.Render(colors.FormatTime(duration)))
}

// renderStatusBar shows the sync offset, flashing after each change, and the
// play state of an offline session.
func (m Model) renderStatusBar(palette *artwork.Palette, width int) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))

	offsetColor := colors.MixRGB(palette.Dim, palette.Highlight, m.offsetFlash.Intensity(m.tickCount))
	offsetStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(offsetColor))

	parts := []string{offsetStyle.Render(fmt.Sprintf("offset %+.1fs", m.clock.Offset()))}
	if m.display.Source != "" {
		parts = append(parts, dim.Render(m.display.Source))
	}
	if m.Offline() && m.wall != nil {
		state := "▶"
		if !m.wall.Playing() {
			state = "⏸"
		}
		parts = append(parts, dim.Render(state))
	}

	return "  " + strings.Join(parts, dim.Render("  ·  "))
}

func (m Model) renderErrorSection(width int, height int) []string {
	lines := make([]string, 0, height)

	for i := 0; i < height/2-1; i++ {
		lines = append(lines, "")
	}

	errStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF6B6B"))

	errText := m.err.Error()
	lines = append(lines, centerText(errStyle.Render(errText), runewidth.StringWidth(errText), width))

	return lines
}

func (m Model) renderWaitingForLyrics(palette *artwork.Palette, width int, height int) []string {
	lines := make([]string, 0, height)

	for i := 0; i < height/2-1; i++ {
		lines = append(lines, "")
	}

	if m.loadingState.IsLoadingLyrics() {
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		idx := m.tickCount % len(frames)
		spinnerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Accent))
		textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))
		msgText := spinnerStyle.Render(frames[idx]) + textStyle.Render(" loading")
		lines = append(lines, centerText(msgText, 9, width))
	} else {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))
		lines = append(lines, centerText(style.Render("♪"), 1, width))
	}

	return lines
}

func centerText(text string, visualWidth int, screenWidth int) string {
	padding := (screenWidth - visualWidth) / 2
	if padding < 0 {
		padding = 0
	}
	return strings.Repeat(" ", padding) + text
}

func truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// fitHeight pads or cuts lines to exactly height rows.
func fitHeight(lines []string, height int) []string {
	height = max(height, 0)
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines[:height]
}
