package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/poliscope/pkg/hub"
	"github.com/teslashibe/poliscope/pkg/monitor"
)

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html")
	return c.Send(indexHTML)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	r, ok := s.Report()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "session still running",
		})
	}
	return c.JSON(r)
}

func (s *Server) handleEvents(c *fiber.Ctx) error {
	return c.JSON(s.Events())
}

// keyHandler forwards k to the loop. The loop picks it up on its next frame.
func (s *Server) keyHandler(k monitor.Key) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.pushKey(k) {
			s.logger.Warn("remote key dropped, queue full", "key", k.String())
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "input queue full",
			})
		}
		s.logger.Debug("remote key queued", "key", k.String())
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"queued": k.String(),
		})
	}
}

// handleStatusWS sends the current snapshot, then every broadcast.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	msg, err := s.statusMessage()
	if err != nil {
		s.logger.Warn("encode status", "error", err)
		return
	}
	s.serveClient(s.statusHub, c, msg)
}

func (s *Server) handleEventsWS(c *websocket.Conn) {
	s.serveClient(s.eventHub, c)
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	s.serveClient(s.cameraHub, c)
}

func (s *Server) serveClient(h *hub.Hub, c *websocket.Conn, initial ...hub.Message) {
	client := hub.NewClient(h, c, initial...)
	if client == nil {
		return
	}
	client.Run()
}
