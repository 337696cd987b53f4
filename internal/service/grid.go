package service

import (
	"strings"
	"time"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/models"
)

// GridKind names one of the two editable grids of a slot.
type GridKind string

// Grids of a submission slot.
const (
	GridConversation GridKind = "conversation"
	GridProbing      GridKind = "probing"
)

// Minimum row counts per grid.
const (
	MinConversationRows = 2
	MinProbingRows      = 1
)

// ParseGridKind validates a grid name from a request.
func ParseGridKind(value string) (GridKind, error) {
	switch GridKind(strings.ToLower(strings.TrimSpace(value))) {
	case GridConversation:
		return GridConversation, nil
	case GridProbing:
		return GridProbing, nil
	default:
		return "", ErrUnknownGrid
	}
}

// MinRows returns the row count below which removal is refused.
func (k GridKind) MinRows() int {
	if k == GridConversation {
		return MinConversationRows
	}
	return MinProbingRows
}

// Draft is the in-progress state of one submission slot. Every transition
// returns a new Draft and leaves the receiver untouched.
type Draft struct {
	Conversation           []dto.GridRow    `json:"conversation"`
	ProbingQuestions       []dto.GridRow    `json:"probing_questions"`
	StudentCharacteristics string           `json:"student_characteristics"`
	LastSelected           map[GridKind]int `json:"last_selected,omitempty"`
	UpdatedAt              *time.Time       `json:"updated_at,omitempty"`
}

// NewDraft returns the blank slot shape: two placeholder transcript rows,
// one blank follow-up row and no characteristics.
func NewDraft() Draft {
	return Draft{
		Conversation: []dto.GridRow{
			{models.SpeakerInterviewer, ""},
			{models.SpeakerStudent, ""},
		},
		ProbingQuestions: []dto.GridRow{{"", ""}},
	}
}

// DraftFromSubmission restores a stored submission into editable grids.
func DraftFromSubmission(submission models.ProbingSubmission) Draft {
	draft := NewDraft()

	if len(submission.Conversation) > 0 {
		rows := make([]dto.GridRow, 0, len(submission.Conversation))
		for _, turn := range submission.Conversation {
			rows = append(rows, dto.GridRow{turn.Speaker, turn.Message})
		}
		draft.Conversation = padRows(rows, MinConversationRows)
	}

	if len(submission.ProbingQuestions) > 0 {
		rows := make([]dto.GridRow, 0, len(submission.ProbingQuestions))
		for _, entry := range submission.ProbingQuestions {
			rows = append(rows, dto.GridRow{entry.Situation, entry.Question})
		}
		draft.ProbingQuestions = rows
	}

	draft.StudentCharacteristics = submission.StudentCharacteristics
	return draft
}

// Rows returns a copy of the rows of the given grid.
func (d Draft) Rows(kind GridKind) []dto.GridRow {
	if kind == GridConversation {
		return cloneRows(d.Conversation)
	}
	return cloneRows(d.ProbingQuestions)
}

// LastSelectedRow returns the remembered row of a grid, if any.
func (d Draft) LastSelectedRow(kind GridKind) (int, bool) {
	row, ok := d.LastSelected[kind]
	return row, ok
}

// WithContent replaces the cells of both grids and the characteristics text.
// Grids shorter than their minimum are padded with blank rows.
func (d Draft) WithContent(conversation, probing []dto.GridRow, characteristics string) (Draft, error) {
	for _, row := range conversation {
		if !validSpeaker(row[0]) {
			return d, ErrInvalidSpeaker
		}
	}

	next := d.clone()
	next.Conversation = padRows(cloneRows(conversation), MinConversationRows)
	next.ProbingQuestions = padRows(cloneRows(probing), MinProbingRows)
	next.StudentCharacteristics = characteristics
	next.LastSelected = nil
	return next, nil
}

// WithRowAppended adds a blank row at the end of the grid.
func (d Draft) WithRowAppended(kind GridKind) Draft {
	next := d.clone()
	next.setRows(kind, append(next.Rows(kind), dto.GridRow{"", ""}))
	return next
}

// WithRowSelected remembers row as the last clicked row of the grid.
func (d Draft) WithRowSelected(kind GridKind, row int) (Draft, error) {
	if row < 0 || row >= len(d.Rows(kind)) {
		return d, ErrInvalidRow
	}
	next := d.clone()
	if next.LastSelected == nil {
		next.LastSelected = map[GridKind]int{}
	}
	next.LastSelected[kind] = row
	return next, nil
}

// RowTarget carries the candidate rows of a removal request.
type RowTarget struct {
	Selection *int
	RangeFrom *int
	Index     *int
}

// ResolveRemovalRow picks the row to remove: current selection first, then the
// start of the last range selection, then the remembered row, and finally the
// explicitly entered index.
func (d Draft) ResolveRemovalRow(kind GridKind, target RowTarget) (int, error) {
	var candidate *int
	switch {
	case target.Selection != nil:
		candidate = target.Selection
	case target.RangeFrom != nil:
		candidate = target.RangeFrom
	default:
		if row, ok := d.LastSelectedRow(kind); ok {
			candidate = &row
		} else if target.Index != nil {
			candidate = target.Index
		}
	}

	if candidate == nil {
		return 0, ErrRowSelectionRequired
	}

	if *candidate < 0 || *candidate >= len(d.Rows(kind)) {
		return 0, ErrInvalidRow
	}

	return *candidate, nil
}

// WithRowRemoved deletes the resolved row unless the grid is at its minimum.
func (d Draft) WithRowRemoved(kind GridKind, target RowTarget) (Draft, error) {
	row, err := d.ResolveRemovalRow(kind, target)
	if err != nil {
		return d, err
	}

	rows := d.Rows(kind)
	if len(rows) <= kind.MinRows() {
		return d, ErrMinimumRows
	}

	next := d.clone()
	next.setRows(kind, append(rows[:row], rows[row+1:]...))

	if remembered, ok := next.LastSelected[kind]; ok {
		switch {
		case remembered == row:
			delete(next.LastSelected, kind)
		case remembered > row:
			next.LastSelected[kind] = remembered - 1
		}
	}

	return next, nil
}

// ConversationTurns extracts turns whose speaker and message are both non-blank.
// Cell text is kept verbatim apart from surrounding whitespace.
func (d Draft) ConversationTurns() []models.ConversationTurn {
	turns := make([]models.ConversationTurn, 0, len(d.Conversation))
	for _, row := range d.Conversation {
		speaker := strings.TrimSpace(row[0])
		message := strings.TrimSpace(row[1])
		if speaker == "" || message == "" {
			continue
		}
		turns = append(turns, models.ConversationTurn{Speaker: speaker, Message: message})
	}
	return turns
}

// ProbingEntries extracts follow-up rows where the situation or the question is non-blank.
func (d Draft) ProbingEntries() []models.ProbingQuestion {
	entries := make([]models.ProbingQuestion, 0, len(d.ProbingQuestions))
	for _, row := range d.ProbingQuestions {
		situation := strings.TrimSpace(row[0])
		question := strings.TrimSpace(row[1])
		if situation == "" && question == "" {
			continue
		}
		entries = append(entries, models.ProbingQuestion{Situation: situation, Question: question})
	}
	return entries
}

func (d *Draft) setRows(kind GridKind, rows []dto.GridRow) {
	if kind == GridConversation {
		d.Conversation = rows
		return
	}
	d.ProbingQuestions = rows
}

func (d Draft) clone() Draft {
	next := d
	next.Conversation = cloneRows(d.Conversation)
	next.ProbingQuestions = cloneRows(d.ProbingQuestions)
	if d.LastSelected != nil {
		next.LastSelected = make(map[GridKind]int, len(d.LastSelected))
		for kind, row := range d.LastSelected {
			next.LastSelected[kind] = row
		}
	}
	return next
}

func cloneRows(rows []dto.GridRow) []dto.GridRow {
	out := make([]dto.GridRow, len(rows))
	copy(out, rows)
	return out
}

func padRows(rows []dto.GridRow, minRows int) []dto.GridRow {
	for len(rows) < minRows {
		rows = append(rows, dto.GridRow{"", ""})
	}
	return rows
}

func validSpeaker(speaker string) bool {
	switch strings.TrimSpace(speaker) {
	case "", models.SpeakerInterviewer, models.SpeakerStudent:
		return true
	default:
		return false
	}
}
