package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/mattn/go-runewidth"

	"thronemind/internal/models"
	"thronemind/internal/styles"
)

var (
	mentionRE    = regexp.MustCompile(`@("([^"]+)"|([^\s]+))`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".heic": true,
}

func isImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// GetFileSuggestions returns images and directories matching a prefix,
// supporting subdirectory paths and recursive search.
func GetFileSuggestions(prefix string) []string {
	cwd, err := os.Getwd()
	if err != nil {
		return nil
	}
	if strings.Contains(prefix, "/") {
		return getDirectorySuggestions(cwd, prefix)
	}
	return getRecursiveSuggestions(cwd, prefix)
}

// getDirectorySuggestions handles paths like "photos/2024/"
func getDirectorySuggestions(cwd, prefix string) []string {
	dir := ""
	filePrefix := prefix
	if idx := strings.LastIndex(prefix, "/"); idx != -1 {
		dir = prefix[:idx+1]
		filePrefix = prefix[idx+1:]
	}

	searchDir := cwd
	if dir != "" {
		searchDir = filepath.Join(cwd, dir)
	}
	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil
	}

	var suggestions []string
	lowerFilePrefix := strings.ToLower(filePrefix)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(filePrefix, ".") {
			continue
		}
		if !entry.IsDir() && !isImage(name) {
			continue
		}
		if strings.HasPrefix(strings.ToLower(name), lowerFilePrefix) {
			suggestions = append(suggestions, dir+name)
		}
	}
	return sortAndLimitSuggestions(cwd, suggestions)
}

func getRecursiveSuggestions(cwd, prefix string) []string {
	var suggestions []string
	lowerPrefix := strings.ToLower(prefix)

	_ = filepath.WalkDir(cwd, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != cwd && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isImage(name) {
			return nil
		}
		if strings.Contains(strings.ToLower(name), lowerPrefix) {
			rel, _ := filepath.Rel(cwd, path)
			suggestions = append(suggestions, rel)
		}
		if len(suggestions) >= 2*MaxSuggestions {
			return filepath.SkipAll
		}
		return nil
	})
	return sortAndLimitSuggestions(cwd, suggestions)
}

// sortAndLimitSuggestions sorts directories first, then shallower paths,
// then alphabetically.
func sortAndLimitSuggestions(cwd string, suggestions []string) []string {
	isDir := func(p string) bool {
		info, _ := os.Stat(filepath.Join(cwd, p))
		return info != nil && info.IsDir()
	}
	sort.Slice(suggestions, func(i, j int) bool {
		iDir, jDir := isDir(suggestions[i]), isDir(suggestions[j])
		if iDir != jDir {
			return iDir
		}
		iDepth := strings.Count(suggestions[i], "/")
		jDepth := strings.Count(suggestions[j], "/")
		if iDepth != jDepth {
			return iDepth < jDepth
		}
		return strings.ToLower(suggestions[i]) < strings.ToLower(suggestions[j])
	})
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

// ExtractImageMentions strips @mentions from input and returns the clean
// text plus the mentioned paths that are existing image files.
func ExtractImageMentions(input string) (cleanInput string, images []string) {
	seen := make(map[string]bool)
	for _, match := range mentionRE.FindAllStringSubmatch(input, -1) {
		path := match[3]
		if match[2] != "" {
			path = match[2]
		}
		if path == "" || seen[path] || !isImage(path) {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			images = append(images, path)
			seen[path] = true
		}
	}

	cleanInput = mentionRE.ReplaceAllStringFunc(input, func(s string) string {
		sub := mentionRE.FindStringSubmatch(s)
		path := sub[3]
		if sub[2] != "" {
			path = sub[2]
		}
		if seen[path] {
			return ""
		}
		return s
	})
	cleanInput = whitespaceRE.ReplaceAllString(strings.TrimSpace(cleanInput), " ")
	return cleanInput, images
}

// GetAtPosition finds the @ mention being typed at cursor position
func GetAtPosition(input string, cursorPos int) (prefix string, startPos int, found bool) {
	if cursorPos > len(input) {
		cursorPos = len(input)
	}
	for i := cursorPos - 1; i >= 0; i-- {
		ch := input[i]
		if ch == '@' {
			return input[i+1 : cursorPos], i, true
		}
		if ch == ' ' || ch == '\n' || ch == '\t' {
			return "", 0, false
		}
	}
	return "", 0, false
}

func TextareaCursorIndex(t textarea.Model) int {
	li := t.LineInfo()
	return cursorIndexFromRowCol(t.Value(), t.Line(), li.StartColumn+li.ColumnOffset)
}

func TextareaCursorFromIndex(value string, index int) (row int, col int) {
	if index < 0 {
		index = 0
	}
	if index > len(value) {
		index = len(value)
	}

	lines := strings.Split(value, "\n")
	pos := 0
	for i, line := range lines {
		if index <= pos+len(line) {
			return i, runeIndexForByteIndex(line, index-pos)
		}
		pos += len(line) + 1
	}

	row = len(lines) - 1
	return row, utf8.RuneCountInString(lines[row])
}

func SetTextareaCursor(t *textarea.Model, row int, col int) {
	lineCount := t.LineCount()
	if lineCount == 0 {
		t.SetCursor(0)
		return
	}
	if row < 0 {
		row = 0
	}
	if row >= lineCount {
		row = lineCount - 1
	}

	for i := 0; i < 10000 && t.Line() > 0; i++ {
		t.CursorUp()
	}
	for i := 0; i < 10000 && t.Line() < row; i++ {
		t.CursorDown()
	}
	t.SetCursor(col)
}

func cursorIndexFromRowCol(value string, row int, col int) int {
	lines := strings.Split(value, "\n")
	if row < 0 {
		row = 0
	}
	if row >= len(lines) {
		row = len(lines) - 1
	}

	index := 0
	for i := 0; i < row; i++ {
		index += len(lines[i]) + 1
	}
	return index + byteIndexForRuneColumn(lines[row], col)
}

func byteIndexForRuneColumn(s string, col int) int {
	if col <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count >= col {
			return i
		}
		count++
	}
	return len(s)
}

func runeIndexForByteIndex(s string, idx int) int {
	if idx <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if i >= idx {
			return count
		}
		count++
	}
	return count
}

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	count := 0
	for _, line := range strings.Split(value, "\n") {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}

func PromptPreview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const maxRunes = 500
	r := []rune(s)
	if len(r) > maxRunes {
		return string(r[:maxRunes])
	}
	return s
}

func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, max, "…")
}

func RelativeTime(t time.Time) string {
	d := time.Since(t)
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		if mins := int(d.Minutes()); mins != 1 {
			return fmt.Sprintf("%d mins ago", mins)
		}
		return "1 min ago"
	case d < 24*time.Hour:
		if hrs := int(d.Hours()); hrs != 1 {
			return fmt.Sprintf("%d hrs ago", hrs)
		}
		return "1 hr ago"
	}
	days := int(d.Hours() / 24)
	if days < 14 {
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	if weeks := days / 7; weeks != 1 {
		return fmt.Sprintf("%d weeks ago", weeks)
	}
	return "1 week ago"
}

// dateSpan formats a task's start and end dates, whichever are set.
func dateSpan(t models.TaskRef) string {
	switch {
	case t.StartDate != "" && t.EndDate != "":
		return t.StartDate + " → " + t.EndDate
	case t.StartDate != "":
		return "from " + t.StartDate
	case t.EndDate != "":
		return "until " + t.EndDate
	}
	return ""
}

func FormatUserMessage(content string, width int, isFirst bool) string {
	label := styles.UserLabelStyle.Render("YOU")
	msg := styles.UserMsgStyle.Width(width - 4).Render(content)
	if isFirst {
		return fmt.Sprintf("\n%s\n%s", label, msg)
	}
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatAIMessage(content string) string {
	label := styles.AiLabelStyle.Render("THRONEMIND")
	msg := styles.AiMsgStyle.Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatTasks(tasks []models.TaskRef) string {
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		line := fmt.Sprintf("• #%d %s", t.ID, t.Description)
		if span := dateSpan(t); span != "" {
			line += "  (" + span + ")"
		}
		lines = append(lines, styles.TaskStyle.Render(line))
	}
	return strings.Join(lines, "\n")
}

func FormatAIMessageWithTasks(content, tasks string) string {
	label := styles.AiLabelStyle.Render("THRONEMIND")
	msg := styles.AiMsgStyle.Render(content)
	return fmt.Sprintf("%s\n%s\n%s", label, msg, tasks)
}
