// Package server exposes a store over the board's REST API.
package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban/internal/board"
	"kanban/internal/grid"
	"kanban/internal/store"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool       `json:"success"`
	User    board.User `json:"user"`
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, s *store.Store, logger *log.Logger) {
	g := e.Group("/api")
	g.GET("/board", getBoard(s))
	g.POST("/columns", postColumn(s, logger))
	g.PUT("/columns/:id", putColumn(s))
	g.POST("/swimlanes", postSwimlane(s, logger))
	g.POST("/tasks", postTask(s, logger))
	g.GET("/tasks/:id", getTask(s))
	g.PUT("/tasks/:id", putTask(s, logger))
	g.DELETE("/tasks/:id", deleteTask(s))
	g.PUT("/lists/:colId/:swimId/config", putListConfig(s))
	g.DELETE("/lists/:colId/:swimId", deleteList(s, logger))
	g.POST("/users/register", postRegister(s, logger))
	g.POST("/users/login", postLogin(s))
	g.DELETE("/users/:username", deleteUser(s, logger))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// decode reads a bounded JSON body and rejects unknown fields.
func decode(c echo.Context, v interface{}) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fail(http.StatusBadRequest, "invalid body")
	}
	return nil
}

func fail(status int, msg string) error {
	return echo.NewHTTPError(status, msg)
}

// storeError maps store sentinels onto HTTP statuses.
func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalid), errors.Is(err, store.ErrConflict):
		return fail(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnauthorized):
		return fail(http.StatusUnauthorized, err.Error())
	default:
		c.Logger().Error(err)
		return fail(http.StatusInternalServerError, err.Error())
	}
}

func pathID(c echo.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fail(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

func cellParams(c echo.Context) (grid.Location, error) {
	col, err := pathID(c, "colId")
	if err != nil {
		return grid.Location{}, err
	}
	swim, err := pathID(c, "swimId")
	if err != nil {
		return grid.Location{}, err
	}
	return grid.Location{ColumnID: col, SwimlaneID: swim}, nil
}

func getBoard(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.Board())
	}
}

func postColumn(s *store.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req titleRequest
		if err := decode(c, &req); err != nil {
			return err
		}
		col, err := s.CreateColumn(req.Title)
		if err != nil {
			return storeError(c, err)
		}
		logger.WithField("column", col.ID).Info("column created")
		return c.JSON(http.StatusCreated, col)
	}
}

func putColumn(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var req titleRequest
		if err := decode(c, &req); err != nil {
			return err
		}
		col, err := s.RenameColumn(id, req.Title)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, col)
	}
}

func postSwimlane(s *store.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req titleRequest
		if err := decode(c, &req); err != nil {
			return err
		}
		sw, err := s.CreateSwimlane(req.Title)
		if err != nil {
			return storeError(c, err)
		}
		logger.WithField("swimlane", sw.ID).Info("swimlane created")
		return c.JSON(http.StatusCreated, sw)
	}
}

func postTask(s *store.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req board.NewTask
		if err := decode(c, &req); err != nil {
			return err
		}
		card, err := s.CreateTask(req)
		if err != nil {
			return storeError(c, err)
		}
		logger.WithFields(log.Fields{"task": card.ID, "column": card.ColumnID, "swimlane": card.SwimlaneID}).Info("task created")
		return c.JSON(http.StatusCreated, card)
	}
}

func getTask(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		card, err := s.Task(id)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, card)
	}
}

func putTask(s *store.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		var patch board.TaskPatch
		if err := decode(c, &patch); err != nil {
			return err
		}
		card, err := s.UpdateTask(id, patch)
		if err != nil {
			return storeError(c, err)
		}
		if patch.Moves() {
			logger.WithFields(log.Fields{"task": id, "column": card.ColumnID, "swimlane": card.SwimlaneID}).Info("task moved")
		}
		return c.JSON(http.StatusOK, card)
	}
}

func deleteTask(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		if err := s.DeleteTask(id); err != nil {
			return storeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func putListConfig(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		loc, err := cellParams(c)
		if err != nil {
			return err
		}
		var patch board.ListConfigPatch
		if err := decode(c, &patch); err != nil {
			return err
		}
		lc, err := s.ConfigureList(loc, patch)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, lc)
	}
}

func deleteList(s *store.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		loc, err := cellParams(c)
		if err != nil {
			return err
		}
		n := s.DeleteList(loc)
		logger.WithFields(log.Fields{"column": loc.ColumnID, "swimlane": loc.SwimlaneID, "tasksDeleted": n}).Info("list deleted")
		return c.JSON(http.StatusOK, board.DeleteResult{Success: true, TasksDeleted: n})
	}
}

func postRegister(s *store.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := decode(c, &req); err != nil {
			return err
		}
		u, err := s.Register(req.Username, req.Email, req.Password, req.Country)
		if err != nil {
			return storeError(c, err)
		}
		logger.WithField("user", u.Username).Info("user registered")
		return c.JSON(http.StatusCreated, u)
	}
}

func postLogin(s *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decode(c, &req); err != nil {
			return err
		}
		u, err := s.Login(req.Username, req.Password)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(http.StatusOK, loginResponse{Success: true, User: u})
	}
}

func deleteUser(s *store.Store, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		username := c.Param("username")
		n, err := s.DeleteUser(username)
		if err != nil {
			return storeError(c, err)
		}
		logger.WithFields(log.Fields{"user": username, "tasksDeleted": n}).Info("user deleted")
		return c.JSON(http.StatusOK, board.DeleteResult{Success: true, TasksDeleted: n})
	}
}
