package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/probing-go-api/internal/dto"
	"github.com/noah-isme/probing-go-api/internal/models"
	"github.com/noah-isme/probing-go-api/internal/repository"
)

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, event string, _ interface{}) {
	p.events = append(p.events, event)
}

func newTestWorkspaceService(t *testing.T) (*workspaceService, repository.SubmissionRepository, *recordingPublisher) {
	t.Helper()
	db := setupProbingDB(t)
	repo := repository.NewSubmissionRepository(db)
	events := &recordingPublisher{}
	svc := NewWorkspaceService(repo, NewMemoryDraftStore(), events, newTestValidator(), zerolog.Nop()).(*workspaceService)
	svc.now = steppingClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return svc, repo, events
}

func healthWorkflow() Workflow {
	return DefaultWorkflows()[QuestionTypeHealthInequality]
}

func TestWorkspaceSubmitPersistsAndResets(t *testing.T) {
	svc, repo, events := newTestWorkspaceService(t)
	ctx := context.Background()
	user := identity("uid-1")

	_, err := svc.Replace(ctx, user, healthWorkflow(), "a", dto.WorkspaceUpdateRequest{
		Conversation:           []dto.GridRow{{models.SpeakerInterviewer, "Q1"}, {models.SpeakerStudent, "A1"}},
		ProbingQuestions:       []dto.GridRow{{"situation1", "question1"}},
		StudentCharacteristics: "shy",
	})
	require.NoError(t, err)

	submission, err := svc.Submit(ctx, user, healthWorkflow(), "a")
	require.NoError(t, err)
	require.Equal(t, "A", submission.StudentType)
	require.Equal(t, QuestionTypeHealthInequality, submission.QuestionType)
	require.Equal(t, "uid-1", submission.UID)
	require.Equal(t, "Display uid-1", submission.DisplayName)
	require.Equal(t, "uid-1@example.com", submission.Email)
	require.Equal(t, []string{EventSubmissionCreated}, events.events)

	stored, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, "shy", stored.StudentCharacteristics)
	require.Equal(t, "면접관: Q1 / 학생: A1", ConversationPreview(stored.Conversation, reviewPreviewTurns))

	workspace, err := svc.Get(ctx, user, healthWorkflow(), "A")
	require.NoError(t, err)
	require.Equal(t, NewDraft().Rows(GridConversation), workspace.Conversation)
	require.Equal(t, NewDraft().Rows(GridProbing), workspace.ProbingQuestions)
	require.Empty(t, workspace.StudentCharacteristics)
}

func TestWorkspaceSubmitRejectsIncompleteDrafts(t *testing.T) {
	svc, repo, _ := newTestWorkspaceService(t)
	ctx := context.Background()
	user := identity("uid-1")

	_, err := svc.Submit(ctx, user, healthWorkflow(), "A")
	require.ErrorIs(t, err, ErrConversationRequired)

	_, err = svc.Replace(ctx, user, healthWorkflow(), "A", dto.WorkspaceUpdateRequest{
		Conversation:     []dto.GridRow{{models.SpeakerInterviewer, "Q1"}},
		ProbingQuestions: []dto.GridRow{{" ", " "}},
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, user, healthWorkflow(), "A")
	require.ErrorIs(t, err, ErrProbingQuestionRequired)

	submissions, err := repo.List(ctx, repository.SubmissionFilter{})
	require.NoError(t, err)
	require.Empty(t, submissions)

	workspace, err := svc.Get(ctx, user, healthWorkflow(), "A")
	require.NoError(t, err)
	require.Equal(t, "Q1", workspace.Conversation[0][1])
}

func TestWorkspaceRequiresIdentityAndKnownSlot(t *testing.T) {
	svc, _, _ := newTestWorkspaceService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, Identity{}, healthWorkflow(), "A")
	require.ErrorIs(t, err, ErrSignInRequired)

	_, err = svc.Get(ctx, identity("uid-1"), healthWorkflow(), "C")
	require.ErrorIs(t, err, ErrUnknownSlot)
}

func TestWorkspaceSlotsAreIndependent(t *testing.T) {
	svc, _, _ := newTestWorkspaceService(t)
	ctx := context.Background()
	user := identity("uid-1")

	_, err := svc.AddRow(ctx, user, healthWorkflow(), "A", dto.RowAddRequest{Grid: "probing"})
	require.NoError(t, err)

	slotA, err := svc.Get(ctx, user, healthWorkflow(), "A")
	require.NoError(t, err)
	slotB, err := svc.Get(ctx, user, healthWorkflow(), "B")
	require.NoError(t, err)
	require.Len(t, slotA.ProbingQuestions, 2)
	require.Len(t, slotB.ProbingQuestions, 1)
}

func TestWorkspaceRowRemoval(t *testing.T) {
	svc, _, _ := newTestWorkspaceService(t)
	ctx := context.Background()
	user := identity("uid-1")
	wf := healthWorkflow()

	_, err := svc.RemoveRow(ctx, user, wf, "A", dto.RowRemoveRequest{Grid: "conversation", Index: intPointer(0)})
	require.ErrorIs(t, err, ErrMinimumRows)

	_, err = svc.AddRow(ctx, user, wf, "A", dto.RowAddRequest{Grid: "conversation"})
	require.NoError(t, err)

	_, err = svc.RemoveRow(ctx, user, wf, "A", dto.RowRemoveRequest{Grid: "conversation"})
	require.ErrorIs(t, err, ErrRowSelectionRequired)

	selected, err := svc.SelectRow(ctx, user, wf, "A", dto.RowSelectRequest{Grid: "conversation", Row: intPointer(2)})
	require.NoError(t, err)
	require.NotNil(t, selected.ConversationLastRow)
	require.Equal(t, 2, *selected.ConversationLastRow)

	_, err = svc.SelectRow(ctx, user, wf, "A", dto.RowSelectRequest{Grid: "conversation", Row: intPointer(9)})
	require.ErrorIs(t, err, ErrInvalidRow)

	removed, err := svc.RemoveRow(ctx, user, wf, "A", dto.RowRemoveRequest{Grid: "conversation", Range: &dto.RowRange{From: 0, To: 1}})
	require.NoError(t, err)
	require.Equal(t, []dto.GridRow{{models.SpeakerStudent, ""}, {"", ""}}, removed.Conversation)
	require.Equal(t, 1, *removed.ConversationLastRow)
}

func TestWorkspaceHistoryAndLoadPrevious(t *testing.T) {
	svc, repo, _ := newTestWorkspaceService(t)
	ctx := context.Background()
	user := identity("uid-1")
	wf := healthWorkflow()

	older := models.ProbingSubmission{
		ID:  "older",
		UID: "uid-1",
		Conversation: []models.ConversationTurn{
			{Speaker: models.SpeakerInterviewer, Message: "Q1"},
		},
		ProbingQuestions:       []models.ProbingQuestion{{Situation: "s1", Question: "q1"}},
		StudentCharacteristics: "first",
		StudentType:            "A",
		QuestionType:           QuestionTypeHealthInequality,
		CreatedAt:              timePointer(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	newer := models.ProbingSubmission{
		ID:  "newer",
		UID: "uid-1",
		Conversation: []models.ConversationTurn{
			{Speaker: models.SpeakerInterviewer, Message: "Q1"},
			{Speaker: models.SpeakerStudent, Message: "A1"},
			{Speaker: models.SpeakerInterviewer, Message: "Q2"},
			{Speaker: models.SpeakerStudent, Message: "A2"},
		},
		ProbingQuestions: []models.ProbingQuestion{{Situation: "s2", Question: "q2"}},
		StudentType:      "A",
		QuestionType:     QuestionTypeHealthInequality,
		CreatedAt:        timePointer(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
	}
	otherSlot := newer
	otherSlot.ID = "other-slot"
	otherSlot.StudentType = "B"
	otherUser := newer
	otherUser.ID = "other-user"
	otherUser.UID = "uid-2"

	for _, submission := range []models.ProbingSubmission{older, newer, otherSlot, otherUser} {
		item := submission
		require.NoError(t, repo.Create(ctx, &item))
	}

	history, err := svc.History(ctx, user, wf, "A")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "newer", history[0].ID)
	require.Equal(t, "면접관: Q1 / 학생: A1 / 면접관: Q2 ...", history[0].Preview)
	require.Equal(t, "older", history[1].ID)
	require.Equal(t, "면접관: Q1", history[1].Preview)

	workspace, err := svc.LoadPrevious(ctx, user, wf, "A", "older")
	require.NoError(t, err)
	require.Equal(t, []dto.GridRow{{models.SpeakerInterviewer, "Q1"}, {"", ""}}, workspace.Conversation)
	require.Equal(t, []dto.GridRow{{"s1", "q1"}}, workspace.ProbingQuestions)
	require.Equal(t, "first", workspace.StudentCharacteristics)

	_, err = svc.LoadPrevious(ctx, user, wf, "A", "other-user")
	require.ErrorIs(t, err, ErrSubmissionNotFound)
	_, err = svc.LoadPrevious(ctx, user, wf, "A", "missing")
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestConversationPreview(t *testing.T) {
	require.Equal(t, dto.EmptyConversationText, ConversationPreview(nil, 3))
	require.Equal(t, "면접관: Q1 / 학생: A1", ConversationPreview([]models.ConversationTurn{
		{Speaker: models.SpeakerInterviewer, Message: "Q1"},
		{Speaker: models.SpeakerStudent, Message: "A1"},
	}, 2))
}

func TestSortSubmissionsNewestFirstPutsMissingTimestampsLast(t *testing.T) {
	submissions := []models.ProbingSubmission{
		{ID: "none"},
		{ID: "old", CreatedAt: timePointer(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))},
		{ID: "new", CreatedAt: timePointer(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
	}

	SortSubmissionsNewestFirst(submissions)
	require.Equal(t, "new", submissions[0].ID)
	require.Equal(t, "old", submissions[1].ID)
	require.Equal(t, "none", submissions[2].ID)
}

func TestWorkspaceSubmitKeepsAngleBracketText(t *testing.T) {
	svc, repo, _ := newTestWorkspaceService(t)
	ctx := context.Background()
	user := identity("uid-1")
	workflow := healthWorkflow()

	_, err := svc.Replace(ctx, user, workflow, "A", dto.WorkspaceUpdateRequest{
		Conversation: []dto.GridRow{
			{models.SpeakerInterviewer, " if x<y and y>z? "},
			{models.SpeakerStudent, "<Answer> is <b>yes</b>"},
		},
		ProbingQuestions:       []dto.GridRow{{"<br>", "Why <Reason>?"}},
		StudentCharacteristics: "answers with <tags>",
	})
	require.NoError(t, err)

	submission, err := svc.Submit(ctx, user, workflow, "A")
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, []models.ConversationTurn{
		{Speaker: models.SpeakerInterviewer, Message: "if x<y and y>z?"},
		{Speaker: models.SpeakerStudent, Message: "<Answer> is <b>yes</b>"},
	}, []models.ConversationTurn(stored.Conversation))
	require.Equal(t, []models.ProbingQuestion{{Situation: "<br>", Question: "Why <Reason>?"}}, []models.ProbingQuestion(stored.ProbingQuestions))
	require.Equal(t, "answers with <tags>", stored.StudentCharacteristics)

	loaded, err := svc.LoadPrevious(ctx, user, workflow, "A", submission.ID)
	require.NoError(t, err)
	require.Equal(t, dto.GridRow{models.SpeakerInterviewer, "if x<y and y>z?"}, loaded.Conversation[0])
	require.Equal(t, dto.GridRow{"<br>", "Why <Reason>?"}, loaded.ProbingQuestions[0])

	_, err = svc.Replace(ctx, user, workflow, "B", dto.WorkspaceUpdateRequest{
		Conversation:     []dto.GridRow{{models.SpeakerInterviewer, "<Q1>"}, {models.SpeakerStudent, "<A1>"}},
		ProbingQuestions: []dto.GridRow{{"", "<follow-up>"}},
	})
	require.NoError(t, err)

	tagged, err := svc.Submit(ctx, user, workflow, "B")
	require.NoError(t, err)
	require.Equal(t, "<Q1>", tagged.Conversation[0].Message)

	history, err := svc.History(ctx, user, workflow, "B")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "면접관: <Q1> / 학생: <A1>", history[0].Preview)
}

type resetFailingDrafts struct {
	DraftStore
}

func (resetFailingDrafts) Delete(context.Context, DraftKey) error {
	return errors.New("draft store unavailable")
}

func TestWorkspaceSubmitReportsUnclearedDraft(t *testing.T) {
	db := setupProbingDB(t)
	repo := repository.NewSubmissionRepository(db)
	events := &recordingPublisher{}
	svc := NewWorkspaceService(repo, resetFailingDrafts{DraftStore: NewMemoryDraftStore()}, events, newTestValidator(), zerolog.Nop())
	ctx := context.Background()
	user := identity("uid-1")

	_, err := svc.Replace(ctx, user, healthWorkflow(), "A", dto.WorkspaceUpdateRequest{
		Conversation:     []dto.GridRow{{models.SpeakerInterviewer, "Q1"}, {models.SpeakerStudent, "A1"}},
		ProbingQuestions: []dto.GridRow{{"situation1", "question1"}},
	})
	require.NoError(t, err)

	submission, err := svc.Submit(ctx, user, healthWorkflow(), "A")
	require.ErrorIs(t, err, ErrDraftNotCleared)
	require.Contains(t, err.Error(), "draft store unavailable")
	require.NotEmpty(t, submission.ID)
	require.Equal(t, []string{EventSubmissionCreated}, events.events)

	stored, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, "uid-1", stored.UID)
}
