package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServerMessage is the envelope for every websocket frame sent to a client.
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleBatchSocket streams a batch job's per-image results as they finish,
// followed by the summary. Completed jobs get their stored results replayed
// immediately.
func (s *Server) handleBatchSocket(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, ok := s.jobs.snapshot(jobID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade websocket connection", zap.Error(err))
		return
	}
	defer conn.Close()

	s.logger.Info("WebSocket client connected",
		zap.String("job_id", jobID),
		zap.String("client_ip", c.ClientIP()))

	events := s.jobs.subscribe(jobID)
	defer s.jobs.unsubscribe(jobID, events)

	// Check job state only after subscribing: a job finishing between the
	// two would otherwise slip past both the replay and the event stream.
	if job, ok := s.jobs.snapshot(jobID); ok && job.Status != jobStatusProcessing {
		s.replayFinishedJob(conn, job)
		return
	}

	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	// Reads are only needed to observe the client going away.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := s.sendMessage(conn, event.Type, event); err != nil {
				return
			}
			if event.terminal() {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		case <-clientGone:
			return
		}
	}
}

func (s *Server) replayFinishedJob(conn *websocket.Conn, job BatchJob) {
	for i := range job.Results {
		event := jobEvent{
			Type:   "result",
			Done:   i + 1,
			Total:  len(job.Results),
			Result: &job.Results[i],
		}
		if err := s.sendMessage(conn, event.Type, event); err != nil {
			return
		}
	}
	if job.Summary != nil {
		s.sendMessage(conn, "summary", jobEvent{Type: "summary", Summary: job.Summary})
	}
	if job.Error != "" {
		s.sendMessage(conn, "error", jobEvent{Type: "error", Error: job.Error})
	}
}

func (s *Server) sendMessage(conn *websocket.Conn, messageType string, data any) error {
	message := ServerMessage{Type: messageType, Data: data}
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(message); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			s.logger.Error("WebSocket write failed", zap.Error(err))
		}
		return err
	}
	return nil
}
