package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mindease/internal/chat"
	"mindease/internal/history"
	"mindease/internal/prompt"
	"mindease/internal/transcript"
)

const sessionCookie = "mindease_session"

type Server struct {
	svc      *chat.Service
	sessions *chat.Sessions
	model    string
	engine   *gin.Engine
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	Reply transcript.Message `json:"reply"`
	Model string             `json:"model"`
	Usage chat.Usage         `json:"usage"`
}

type messagesResponse struct {
	SessionID  string               `json:"session_id"`
	State      string               `json:"state"`
	Transcript []transcript.Message `json:"transcript"`
	History    []history.Message    `json:"history"`
	Usage      chat.Usage           `json:"usage"`
}

func New(svc *chat.Service, sessions *chat.Sessions, model string) *Server {
	s := &Server{svc: svc.WithSurface("web"), sessions: sessions, model: model}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(pageTemplate)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().Format(time.RFC3339)})
	})
	r.GET("/api/model", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"model": s.model, "persona": s.svc.Persona().Name})
	})

	r.GET("/", s.handlePage)
	r.POST("/chat", s.handleChatForm)
	r.POST("/profile", s.handleProfile)
	r.POST("/new", s.handleNew)

	r.GET("/api/messages", s.handleListMessages)
	r.POST("/api/messages", s.handleSendMessage)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Printf("🌐 Web UI listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// conversation resolves the caller's session from the cookie, issuing a new
// id when there is none.
func (s *Server) conversation(c *gin.Context) *chat.Conversation {
	id, err := c.Cookie(sessionCookie)
	if err != nil || id == "" {
		id = uuid.NewString()
		c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	}
	return s.sessions.Get(id)
}

func (s *Server) handlePage(c *gin.Context) {
	conv := s.conversation(c)
	persona := s.svc.Persona()

	var greeting string
	hist, err := s.svc.Greet(c.Request.Context(), conv)
	if err != nil {
		c.String(http.StatusServiceUnavailable, "history unavailable: %v", err)
		return
	}
	if len(hist) > 0 && hist[0].Role == history.RoleAI {
		greeting = hist[0].Text
	}

	// Summarizing personas show the context that rides along with each turn.
	var memory string
	if persona.Summarize {
		memory = prompt.DerivedContext(conv.Transcript(), persona.Window())
	}

	errMsg := c.Query("error")
	if errMsg == "" {
		errMsg = conv.LastError()
	}

	c.HTML(http.StatusOK, "page", pageData{
		Title:       persona.Title,
		Tagline:     persona.Tagline,
		Placeholder: persona.Placeholder,
		Greeting:    greeting,
		Transcript:  conv.Transcript(),
		Error:       errMsg,
		Tokens:      conv.Usage().TotalTokens,
		Model:       s.model,
		Memory:      memory,
		ShowSidebar: persona.IncludeName || persona.IncludeMood,
		Profile:     conv.Profile(),
		Moods:       moods,
	})
}

func (s *Server) handleChatForm(c *gin.Context) {
	conv := s.conversation(c)
	_, err := s.svc.Submit(c.Request.Context(), conv, c.PostForm("message"))
	target := "/"
	if err != nil {
		target = "/?error=" + url.QueryEscape(userMessage(err))
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (s *Server) handleProfile(c *gin.Context) {
	conv := s.conversation(c)
	conv.SetProfile(prompt.Profile{Name: c.PostForm("name"), Mood: c.PostForm("mood")})
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleNew(c *gin.Context) {
	c.SetCookie(sessionCookie, uuid.NewString(), 0, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleListMessages(c *gin.Context) {
	conv := s.conversation(c)
	hist, err := s.svc.Store().Messages(c.Request.Context(), conv.ID())
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, messagesResponse{
		SessionID:  conv.ID(),
		State:      conv.State().String(),
		Transcript: conv.Transcript(),
		History:    hist,
		Usage:      conv.Usage(),
	})
}

func (s *Server) handleSendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.BindJSON(&req); err != nil {
		return
	}
	conv := s.conversation(c)
	turn, err := s.svc.Submit(c.Request.Context(), conv, req.Content)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, sendMessageResponse{
		Reply: transcript.AIMessage(turn.Reply),
		Model: turn.Model,
		Usage: conv.Usage(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, history.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		return "Please type something first."
	case errors.Is(err, chat.ErrBusy):
		return "Still thinking about your last message."
	case errors.Is(err, history.ErrUnavailable):
		return "Conversation memory is unavailable."
	default:
		return "Sorry, something went wrong. Your message is kept above; please send it again."
	}
}
