package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/config"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/pkg/cache"
	"depanku-backend/pkg/logger"
)

const (
	aiRequestTimeout  = 60 * time.Second
	discoverySessions = 30 * time.Minute
	maxChatMessages   = 30
)

const chatSystemPrompt = "You are Depanku's assistant. You help Indonesian " +
	"high school and gap-year students find research programs, competitions, " +
	"youth programs and communities. Be concrete and encouraging. Answer in " +
	"the language the student writes in."

// discoveryQuestions is the fixed interview the guided discovery walks
// through before recommending listings.
var discoveryQuestions = []string{
	"What subjects or activities make you lose track of time?",
	"Do you prefer working alone, in a small team, or in a big community?",
	"How much time per week could you commit to a program right now?",
	"Is there a skill or field you want to get better at this year?",
}

type AIService struct {
	cfg             *config.Config
	opportunityRepo repository.OpportunityRepository
	cache           *cache.Cache
	httpClient      *http.Client

	mu       sync.Mutex
	sessions map[string]*DiscoverySession
}

func NewAIService(cfg *config.Config, opportunityRepo repository.OpportunityRepository, c *cache.Cache) *AIService {
	return &AIService{
		cfg:             cfg,
		opportunityRepo: opportunityRepo,
		cache:           c,
		httpClient:      &http.Client{Timeout: aiRequestTimeout},
		sessions:        make(map[string]*DiscoverySession),
	}
}

func (s *AIService) Enabled() bool {
	return s.cfg.EnableAI && s.cfg.AIAPIKey != ""
}

// chatCompletionRequest is the OpenAI-compatible wire format.
type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat forwards a conversation to the configured provider with the Depanku
// system prompt prepended.
func (s *AIService) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if !s.Enabled() {
		return "", apperrors.New(apperrors.NetworkAIProvider)
	}
	if len(messages) > maxChatMessages {
		messages = messages[len(messages)-maxChatMessages:]
	}

	full := append([]models.ChatMessage{{Role: "system", Content: chatSystemPrompt}}, messages...)
	return s.complete(ctx, full)
}

func (s *AIService) complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	payload := chatCompletionRequest{
		Model:       s.cfg.AIModel,
		Messages:    messages,
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ServerInternal, err)
	}

	url := strings.TrimSuffix(s.cfg.AIEndpoint, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ServerInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AIAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperrors.Wrap(apperrors.NetworkUpstreamTimeout, err)
		}
		return "", apperrors.Wrap(apperrors.NetworkUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.Wrap(apperrors.NetworkAIProvider, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", apperrors.New(apperrors.RateLimitAI)
	}
	if resp.StatusCode != http.StatusOK {
		providerErr := fmt.Errorf("provider status %d", resp.StatusCode)
		logger.Error(providerErr, "AI provider returned an error", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return "", apperrors.Wrap(apperrors.NetworkAIProvider, providerErr)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", apperrors.Wrap(apperrors.NetworkAIProvider, err)
	}
	if parsed.Error != nil {
		return "", apperrors.Wrap(apperrors.NetworkAIProvider, errors.New(parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.Wrap(apperrors.NetworkAIProvider, errors.New("empty choices"))
	}

	return parsed.Choices[0].Message.Content, nil
}

// DiscoverySession tracks one guided-discovery interview.
type DiscoverySession struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Step      int       `json:"step"`
	Answers   []string  `json:"answers"`
	CreatedAt time.Time `json:"created_at"`
}

// DiscoveryStep is what the client renders next.
type DiscoveryStep struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question,omitempty"`
	Step      int    `json:"step"`
	Total     int    `json:"total"`
	Done      bool   `json:"done"`
}

func (s *AIService) StartDiscovery(userID uint) DiscoveryStep {
	session := &DiscoverySession{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	s.storeSession(session)

	return DiscoveryStep{
		SessionID: session.ID,
		Question:  discoveryQuestions[0],
		Step:      1,
		Total:     len(discoveryQuestions),
	}
}

func (s *AIService) ContinueDiscovery(sessionID, answer string) (DiscoveryStep, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return DiscoveryStep{}, err
	}

	session.Answers = append(session.Answers, strings.TrimSpace(answer))
	session.Step++
	s.storeSession(session)

	if session.Step >= len(discoveryQuestions) {
		return DiscoveryStep{
			SessionID: session.ID,
			Step:      session.Step,
			Total:     len(discoveryQuestions),
			Done:      true,
		}, nil
	}

	return DiscoveryStep{
		SessionID: session.ID,
		Question:  discoveryQuestions[session.Step],
		Step:      session.Step + 1,
		Total:     len(discoveryQuestions),
	}, nil
}

// DiscoveryRecommendation pairs a listing with the model's one-line reason.
type DiscoveryRecommendation struct {
	Opportunity models.Opportunity `json:"opportunity"`
	Reason      string             `json:"reason"`
}

// RecommendOpportunities matches the interview answers against published
// listings. The model only ranks and explains; the candidate set always
// comes from the directory.
func (s *AIService) RecommendOpportunities(ctx context.Context, sessionID string, interests []string) ([]DiscoveryRecommendation, error) {
	session, err := s.loadSession(sessionID)
	if err != nil {
		return nil, err
	}

	published, err := s.opportunityRepo.GetAllPublished()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	if len(published) == 0 {
		return []DiscoveryRecommendation{}, nil
	}
	if len(published) > 25 {
		published = published[:25]
	}

	if !s.Enabled() {
		return fallbackRecommendations(published, interests), nil
	}

	prompt := buildRecommendationPrompt(session, interests, published)
	content, err := s.complete(ctx, []models.ChatMessage{
		{Role: "system", Content: chatSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		// Degrade to tag matching rather than failing the whole flow.
		logger.Warn("AI recommendation failed, using tag matching", map[string]interface{}{
			"session_id": sessionID,
		})
		return fallbackRecommendations(published, interests), nil
	}

	return parseRecommendations(content, published), nil
}

// AnalyzeOpportunity explains how well one listing fits the interview.
func (s *AIService) AnalyzeOpportunity(ctx context.Context, sessionID string, opportunityID uint) (string, error) {
	opp, err := s.opportunityRepo.GetByID(opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.New(apperrors.NotFoundOpportunity)
		}
		return "", apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	if !s.Enabled() {
		return "", apperrors.New(apperrors.NetworkAIProvider)
	}

	var profile string
	if sessionID != "" {
		if session, err := s.loadSession(sessionID); err == nil {
			profile = "The student answered a short interview:\n" + formatAnswers(session)
		}
	}

	prompt := fmt.Sprintf(
		"%s\nAnalyze whether this opportunity fits the student. Cover "+
			"eligibility, time commitment, and what they would gain. Keep it "+
			"under 150 words.\n\nTitle: %s\nType: %s\nOrganizer: %s\nTags: %s\n\n%s",
		profile, opp.Title, opp.Type, opp.Organizer,
		strings.Join(opp.Tags, ", "), opp.Description,
	)

	return s.complete(ctx, []models.ChatMessage{
		{Role: "system", Content: chatSystemPrompt},
		{Role: "user", Content: prompt},
	})
}

func (s *AIService) storeSession(session *DiscoverySession) {
	if s.cache.Enabled() {
		if err := s.cache.Set("discovery:"+session.ID, session, discoverySessions); err == nil {
			return
		}
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
}

func (s *AIService) loadSession(sessionID string) (*DiscoverySession, error) {
	if s.cache.Enabled() {
		var session DiscoverySession
		if err := s.cache.Get("discovery:"+sessionID, &session); err == nil {
			return &session, nil
		}
	}

	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, apperrors.New(apperrors.NotFoundSession)
	}
	if time.Since(session.CreatedAt) > discoverySessions {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return nil, apperrors.New(apperrors.NotFoundSession)
	}
	return session, nil
}

func formatAnswers(session *DiscoverySession) string {
	var b strings.Builder
	for i, answer := range session.Answers {
		if i < len(discoveryQuestions) {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", discoveryQuestions[i], answer)
		}
	}
	return b.String()
}

func buildRecommendationPrompt(session *DiscoverySession, interests []string, published []models.Opportunity) string {
	var b strings.Builder
	b.WriteString("Rank the opportunities below for this student. Respond with ")
	b.WriteString("one line per pick, at most 5 picks, formatted as ")
	b.WriteString("\"<id>|<one sentence reason>\".\n\n")
	b.WriteString(formatAnswers(session))
	if len(interests) > 0 {
		fmt.Fprintf(&b, "Stated interests: %s\n", strings.Join(interests, ", "))
	}
	b.WriteString("\nOpportunities:\n")
	for _, opp := range published {
		fmt.Fprintf(&b, "%d: %s (%s) tags=%s\n", opp.ID, opp.Title, opp.Type, strings.Join(opp.Tags, ","))
	}
	return b.String()
}

func parseRecommendations(content string, published []models.Opportunity) []DiscoveryRecommendation {
	byID := make(map[uint]models.Opportunity, len(published))
	for _, opp := range published {
		byID[opp.ID] = opp
	}

	var recommendations []DiscoveryRecommendation
	for _, line := range strings.Split(content, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "|", 2)
		if len(parts) != 2 {
			continue
		}
		var id uint
		if _, err := fmt.Sscanf(parts[0], "%d", &id); err != nil {
			continue
		}
		opp, ok := byID[id]
		if !ok {
			continue
		}
		recommendations = append(recommendations, DiscoveryRecommendation{
			Opportunity: opp,
			Reason:      strings.TrimSpace(parts[1]),
		})
		if len(recommendations) == 5 {
			break
		}
	}

	if len(recommendations) == 0 {
		return fallbackRecommendations(published, nil)
	}
	return recommendations
}

// fallbackRecommendations scores listings by interest-tag overlap so the
// flow still returns something when the model is unreachable.
func fallbackRecommendations(published []models.Opportunity, interests []string) []DiscoveryRecommendation {
	normalized := make(map[string]struct{}, len(interests))
	for _, interest := range interests {
		normalized[strings.ToLower(strings.TrimSpace(interest))] = struct{}{}
	}

	type scored struct {
		opp   models.Opportunity
		score int
	}
	candidates := make([]scored, 0, len(published))
	for _, opp := range published {
		score := 0
		for _, tag := range opp.Tags {
			if _, ok := normalized[tag]; ok {
				score++
			}
		}
		candidates = append(candidates, scored{opp: opp, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	limit := 5
	if len(candidates) < limit {
		limit = len(candidates)
	}
	result := make([]DiscoveryRecommendation, 0, limit)
	for _, candidate := range candidates[:limit] {
		reason := "Popular with students right now."
		if candidate.score > 0 {
			reason = "Matches your stated interests."
		}
		result = append(result, DiscoveryRecommendation{
			Opportunity: candidate.opp,
			Reason:      reason,
		})
	}
	return result
}
