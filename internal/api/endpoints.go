package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"time"

	"thronemind/internal/models"
)

func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	var res models.AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, rf models.RegisterForm) (models.AuthResponse, error) {
	f := newForm()
	f.field("email", rf.Email)
	f.field("nickname", rf.Nickname)
	f.field("password", rf.Password)
	if rf.Photo != nil {
		f.file("photo", *rf.Photo)
	}
	var res models.AuthResponse
	err := c.doForm(ctx, "auth/register", f, &res)
	return res, err
}

func (c *Client) ImprovePrompt(ctx context.Context, prompt string) (models.ImproveResult, error) {
	var res models.ImproveResult
	if err := c.doJSON(ctx, http.MethodPost, "prompt/improve", map[string]string{"prompt": prompt}, &res); err != nil {
		return models.ImproveResult{}, err
	}
	res.Original = prompt
	res.Timestamp = time.Now()
	return res, nil
}

func (c *Client) PromptHistory(ctx context.Context) ([]models.PromptHistoryEntry, error) {
	var res []models.PromptHistoryEntry
	err := c.doJSON(ctx, http.MethodGet, "prompt/history", nil, &res)
	return res, err
}

func (c *Client) SavePrompt(ctx context.Context, req models.SavePromptRequest) (models.SavedPrompt, error) {
	var res models.SavedPrompt
	err := c.doJSON(ctx, http.MethodPost, "prompt/save", req, &res)
	return res, err
}

func (c *Client) Act(ctx context.Context, prompt string) (models.ActResult, error) {
	var res models.ActResult
	err := c.doJSON(ctx, http.MethodPost, "prompt/act", map[string]string{"prompt": prompt}, &res)
	return res, err
}

func (c *Client) ActWithPhoto(ctx context.Context, photo models.Photo) (models.ActResult, error) {
	f := newForm()
	f.file("photo", photo)
	var res models.ActResult
	err := c.doForm(ctx, "prompt/actWithPhoto", f, &res)
	return res, err
}

func (c *Client) OptimizeTasks(ctx context.Context, taskIDs []int64) (models.OptimizeResult, error) {
	var res models.OptimizeResult
	err := c.doJSON(ctx, http.MethodPost, "tasks/optimize", map[string][]int64{"taskIds": taskIDs}, &res)
	return res, err
}

func (c *Client) UpdateTaskStatus(ctx context.Context, id int64, status models.TaskStatus) (models.TaskStatusUpdate, error) {
	if !status.Valid() {
		return models.TaskStatusUpdate{}, fmt.Errorf("invalid task status %q", status)
	}
	path := fmt.Sprintf("tasks/%d/status", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, map[string]models.TaskStatus{"status": status}, nil); err != nil {
		return models.TaskStatusUpdate{}, err
	}
	return models.TaskStatusUpdate{ID: id, Status: status}, nil
}

func (c *Client) DailySummary(ctx context.Context) (models.DailySummary, error) {
	var res models.DailySummary
	err := c.doJSON(ctx, http.MethodGet, "summary/daily", nil, &res)
	return res, err
}

// form accumulates multipart fields; the first write error sticks.
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, value)
}

func (f *form) file(name string, p models.Photo) {
	if f.err != nil {
		return
	}
	filename := filepath.Base(p.Filename)
	if filename == "." || filename == "/" {
		filename = name
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, filename))
	h.Set("Content-Type", http.DetectContentType(p.Data))
	part, err := f.w.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(p.Data)
}

func (f *form) encode() ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return f.buf.Bytes(), f.w.FormDataContentType(), nil
}
