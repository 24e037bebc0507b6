package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"foodwaste/internal/food"
	"foodwaste/internal/model"
	"foodwaste/internal/query"
	"foodwaste/internal/report"
)

// ErrorResponse is the JSON body of a failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// filters are the sidebar filter values, shared by the page and the API.
type filters struct {
	City         string `form:"city"`
	Name         string `form:"name"`
	FoodType     string `form:"food_type"`
	ProviderType string `form:"provider_type"`
}

func (f filters) queryValues() map[string]string {
	return map[string]string{"city": f.City, "food_type": f.FoodType}
}

func (f filters) contactFilter() query.ContactFilter {
	return query.ContactFilter{City: f.City, Name: f.Name, ProviderType: f.ProviderType}
}

type pageData struct {
	Filters          filters
	ShowProviderType bool
	Message          string
	Error            string
	Summary          *report.Summary
	SummaryError     string
	Results          []food.QueryResult
	Contacts         *model.Table
	ContactsError    string
}

func (s *Server) index(c *gin.Context) {
	var f filters
	_ = c.ShouldBindQuery(&f)

	data := pageData{
		Filters:          f,
		ShowProviderType: s.svc.Capabilities().ProviderType,
		Message:          c.Query("msg"),
		Error:            c.Query("error"),
		Results:          s.svc.RunAll(f.queryValues()),
	}

	if summary, err := s.svc.Summary(); err != nil {
		data.SummaryError = err.Error()
	} else {
		data.Summary = summary
	}

	if contacts, err := s.svc.ProviderContacts(f.contactFilter()); err != nil {
		s.logger.Error("provider contacts failed", "error", err)
		data.ContactsError = err.Error()
	} else {
		data.Contacts = contacts
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// providerForm handles the add, update and delete provider forms and
// redirects back to the page with an outcome message.
func (s *Server) providerForm(c *gin.Context) {
	var msg string
	var err error

	switch action := c.PostForm("action"); action {
	case "add":
		var p food.NewProvider
		if err = c.ShouldBind(&p); err == nil {
			var id int64
			if id, err = s.svc.AddProvider(p); err == nil {
				msg = fmt.Sprintf("Provider %d added", id)
			}
		}
	case "update":
		var id int64
		if id, err = parseID(c.PostForm("provider_id")); err == nil {
			if err = s.svc.UpdateProviderContact(id, c.PostForm("contact")); err == nil {
				msg = fmt.Sprintf("Provider %d updated", id)
			}
		}
	case "delete":
		var id int64
		if id, err = parseID(c.PostForm("provider_id")); err == nil {
			if err = s.svc.DeleteProvider(id); err == nil {
				msg = fmt.Sprintf("Provider %d deleted", id)
			}
		}
	default:
		err = fmt.Errorf("%w: unknown action %q", food.ErrInvalidInput, action)
	}

	v := url.Values{}
	if err != nil {
		v.Set("error", err.Error())
	} else {
		v.Set("msg", msg)
	}
	c.Redirect(http.StatusSeeOther, "/?"+v.Encode())
}

type queryInfo struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Params []string `json:"params"`
}

func (s *Server) listQueries(c *gin.Context) {
	catalog := s.svc.Catalog()
	out := make([]queryInfo, 0, len(catalog))
	for _, d := range catalog {
		info := queryInfo{ID: d.ID, Title: d.Title, Params: []string{}}
		for _, p := range d.Params {
			info.Params = append(info.Params, p.Name)
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) runQuery(c *gin.Context) {
	var f filters
	_ = c.ShouldBindQuery(&f)

	table, err := s.svc.RunQuery(c.Param("id"), f.queryValues())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (s *Server) contacts(c *gin.Context) {
	var f query.ContactFilter
	_ = c.ShouldBindQuery(&f)

	table, err := s.svc.ProviderContacts(f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (s *Server) summary(c *gin.Context) {
	summary, err := s.svc.Summary()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) createProvider(c *gin.Context) {
	var p food.NewProvider
	if err := c.ShouldBindJSON(&p); err != nil {
		writeError(c, fmt.Errorf("%w: %v", food.ErrInvalidInput, err))
		return
	}
	id, err := s.svc.AddProvider(p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"provider_id": id})
}

type contactUpdate struct {
	Contact string `json:"contact"`
}

func (s *Server) updateProvider(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var body contactUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, fmt.Errorf("%w: %v", food.ErrInvalidInput, err))
		return
	}
	if err := s.svc.UpdateProviderContact(id, body.Contact); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider_id": id, "contact": strings.TrimSpace(body.Contact)})
}

func (s *Server) deleteProvider(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.svc.DeleteProvider(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: provider id must be a positive integer", food.ErrInvalidInput)
	}
	return id, nil
}

// writeError maps service errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, food.ErrNotFound), errors.Is(err, food.ErrUnknownQuery):
		status = http.StatusNotFound
	case errors.Is(err, food.ErrInvalidInput),
		errors.Is(err, food.ErrDuplicateID),
		errors.Is(err, food.ErrQueryUnavailable):
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}
