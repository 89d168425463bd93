package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// errorBody mirrors the API error payload. Successful responses are plain
// JSON objects.
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type step struct {
	Name     string
	Status   int
	Expected int
	Duration time.Duration
	Error    error
}

type runner struct {
	client *http.Client
	base   string
	steps  []step
}

func main() {
	var (
		base    string
		notePDF string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:5000/api", "API base URL including prefix")
	flag.StringVar(&notePDF, "file", "", "Notes file to upload (required)")
	flag.DurationVar(&timeout, "timeout", 90*time.Second, "HTTP client timeout")
	flag.Parse()

	if notePDF == "" {
		flag.Usage()
		os.Exit(2)
	}
	content, err := os.ReadFile(notePDF)
	if err != nil {
		log.Fatalf("failed to read notes file: %v", err)
	}

	r := &runner{client: &http.Client{Timeout: timeout}, base: strings.TrimRight(base, "/")}
	r.run(content, filepath.Base(notePDF))

	failed := printReport(r.steps)
	fmt.Printf("Failed steps: %d of %d\n", failed, len(r.steps))
	if failed > 0 {
		os.Exit(1)
	}
}

func (r *runner) run(content []byte, filename string) {
	suffix := time.Now().UnixNano()

	var student struct {
		ID string `json:"id"`
	}
	if !r.json("register student", http.MethodPost, "/students/register", map[string]string{
		"name":  "Smoke Check",
		"email": fmt.Sprintf("smoke-%d@example.com", suffix),
	}, http.StatusCreated, &student) {
		return
	}

	var course struct {
		Course struct {
			ID string `json:"id"`
		} `json:"course"`
	}
	if !r.json("create course", http.MethodPost, "/courses/create", map[string]string{
		"title":     "Smoke Course",
		"studentId": student.ID,
	}, http.StatusCreated, &course) {
		return
	}

	var chapter struct {
		Chapter struct {
			ID string `json:"id"`
		} `json:"chapter"`
	}
	if !r.json("add chapter", http.MethodPost, "/chapters/add", map[string]string{
		"title":     "Chapter 1",
		"studentId": student.ID,
		"courseId":  course.Course.ID,
	}, http.StatusCreated, &chapter) {
		return
	}

	chat := map[string]string{"studentId": student.ID, "message": "What is this chapter about?"}
	chatPath := "/conversations/" + chapter.Chapter.ID

	var reply struct {
		Answer string `json:"answer"`
	}
	if r.json("chat without file", http.MethodPost, chatPath, chat, http.StatusOK, &reply) && !strings.HasPrefix(reply.Answer, "No file found") {
		r.fail("chat without file", fmt.Errorf("unexpected answer %q", reply.Answer))
	}

	var file struct {
		ID string `json:"id"`
	}
	if !r.upload("upload file", map[string]string{
		"studentId": student.ID,
		"courseId":  course.Course.ID,
		"chapterId": chapter.Chapter.ID,
	}, filename, content, &file) {
		return
	}

	var listing struct {
		Files []struct {
			ID string `json:"id"`
		} `json:"files"`
	}
	if r.json("list files", http.MethodGet, "/files?chapterId="+chapter.Chapter.ID, nil, http.StatusOK, &listing) {
		if len(listing.Files) != 1 || listing.Files[0].ID != file.ID {
			r.fail("list files", fmt.Errorf("expected only %s, got %d files", file.ID, len(listing.Files)))
		}
	}

	r.json("chat with file", http.MethodPost, chatPath, chat, http.StatusOK, &reply)
	var deleted struct {
		Message string `json:"message"`
	}
	if r.json("delete file", http.MethodDelete, "/files/"+file.ID, nil, http.StatusOK, &deleted) && deleted.Message != "File deleted successfully" {
		r.fail("delete file", fmt.Errorf("unexpected message %q", deleted.Message))
	}
	r.json("delete file again", http.MethodDelete, "/files/"+file.ID, nil, http.StatusNotFound, nil)
}

func (r *runner) json(name, method, path string, payload any, expected int, out any) bool {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return r.record(step{Name: name, Expected: expected, Error: err})
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, r.base+path, body)
	if err != nil {
		return r.record(step{Name: name, Expected: expected, Error: err})
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return r.do(name, req, expected, out)
}

func (r *runner) upload(name string, fields map[string]string, filename string, content []byte, out any) bool {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return r.record(step{Name: name, Expected: http.StatusOK, Error: err})
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err == nil {
		_, err = part.Write(content)
	}
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		return r.record(step{Name: name, Expected: http.StatusOK, Error: err})
	}

	req, err := http.NewRequest(http.MethodPost, r.base+"/files/upload", &buf)
	if err != nil {
		return r.record(step{Name: name, Expected: http.StatusOK, Error: err})
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return r.do(name, req, http.StatusOK, out)
}

func (r *runner) do(name string, req *http.Request, expected int, out any) bool {
	res := step{Name: name, Expected: expected}
	start := time.Now()
	resp, err := r.client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return r.record(res)
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return r.record(res)
	}
	if res.Status != expected {
		res.Error = describe(raw)
		return r.record(res)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			res.Error = fmt.Errorf("decode body: %w", err)
		}
	}
	return r.record(res)
}

func (r *runner) record(s step) bool {
	r.steps = append(r.steps, s)
	return s.Error == nil
}

func (r *runner) fail(name string, err error) {
	for i := len(r.steps) - 1; i >= 0; i-- {
		if r.steps[i].Name == name {
			r.steps[i].Error = err
			return
		}
	}
}

func describe(raw []byte) error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil {
		return fmt.Errorf("%s: %s", body.Error.Code, body.Error.Message)
	}
	if len(raw) == 0 {
		return errors.New("empty body")
	}
	return fmt.Errorf("unexpected body: %s", bytes.TrimSpace(raw))
}

func printReport(results []step) int {
	fmt.Println("Smoke Check Report")
	fmt.Println("==================")
	failed := 0
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s\n", status, res.Name)
		fmt.Printf("  Status: %d (expected %d, %s)\n", res.Status, res.Expected, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
	return failed
}
