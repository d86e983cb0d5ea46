package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/google/uuid"
)

// ReportHTTPClient шлёт события в сервисы отчётов студентов и преподавателей.
// Пустой URL отключает соответствующий сервис.
type ReportHTTPClient struct {
	studentURL string
	teacherURL string
	httpClient *http.Client
}

func NewReportHTTPClient(studentURL, teacherURL string, httpClient *http.Client) *ReportHTTPClient {
	return &ReportHTTPClient{
		studentURL: strings.TrimRight(studentURL, "/"),
		teacherURL: strings.TrimRight(teacherURL, "/"),
		httpClient: httpClient,
	}
}

func DefaultReportHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type studentRecord struct {
	ReservationID uuid.UUID      `json:"reservation_id"`
	StudentID     string         `json:"student_id"`
	StudentName   string         `json:"student_name"`
	OwnerID       string         `json:"teacher_id"`
	OwnerName     string         `json:"teacher_name"`
	Semester      string         `json:"semester"`
	Subject       string         `json:"subject"`
	Section       string         `json:"section"`
	Weekday       model.Weekday  `json:"weekday"`
	StartTime     string         `json:"start_time"`
	EndTime       string         `json:"end_time"`
	Modality      model.Modality `json:"modality"`
	Location      string         `json:"location"`
}

type teacherRecord struct {
	ReservationID uuid.UUID     `json:"reservation_id"`
	OwnerID       string        `json:"teacher_id"`
	OwnerName     string        `json:"teacher_name"`
	Weekday       model.Weekday `json:"weekday"`
	StartTime     string        `json:"start_time"`
	EndTime       string        `json:"end_time"`
	StudentID     string        `json:"student_id"`
	StudentName   string        `json:"student_name"`
}

type slotCancellation struct {
	OwnerID   string        `json:"teacher_id"`
	Weekday   model.Weekday `json:"weekday"`
	StartTime string        `json:"start_time"`
	EndTime   string        `json:"end_time"`
	Reason    string        `json:"reason"`
	Cancelled int64         `json:"cancelled"`
}

func (c *ReportHTTPClient) NotifyReservationCreated(ctx context.Context, eventID uuid.UUID, res *model.Reservation) error {
	if c.studentURL != "" {
		err := c.post(ctx, c.studentURL+"/records", eventID, studentRecord{
			ReservationID: res.ID,
			StudentID:     res.StudentID,
			StudentName:   res.StudentName,
			OwnerID:       res.OwnerID,
			OwnerName:     res.OwnerName,
			Semester:      res.Semester,
			Subject:       res.Subject,
			Section:       res.Section,
			Weekday:       res.Weekday,
			StartTime:     res.StartTime,
			EndTime:       res.EndTime,
			Modality:      res.Modality,
			Location:      res.Location,
		})
		if err != nil {
			return fmt.Errorf("student reports: %w", err)
		}
	}

	if c.teacherURL != "" {
		err := c.post(ctx, c.teacherURL+"/records", eventID, teacherRecord{
			ReservationID: res.ID,
			OwnerID:       res.OwnerID,
			OwnerName:     res.OwnerName,
			Weekday:       res.Weekday,
			StartTime:     res.StartTime,
			EndTime:       res.EndTime,
			StudentID:     res.StudentID,
			StudentName:   res.StudentName,
		})
		if err != nil {
			return fmt.Errorf("teacher reports: %w", err)
		}
	}

	return nil
}

func (c *ReportHTTPClient) NotifySlotCancelledReservations(ctx context.Context, eventID uuid.UUID, slot model.SlotWithdrawn, cancelled int64) error {
	if c.teacherURL == "" {
		return nil
	}
	err := c.post(ctx, c.teacherURL+"/cancellations", eventID, slotCancellation{
		OwnerID:   slot.OwnerID,
		Weekday:   slot.Weekday,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Reason:    slot.Reason,
		Cancelled: cancelled,
	})
	if err != nil {
		return fmt.Errorf("teacher reports: %w", err)
	}
	return nil
}

// post повторная доставка с тем же Idempotency-Key должна быть безопасна на стороне получателя
func (c *ReportHTTPClient) post(ctx context.Context, url string, eventID uuid.UUID, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal report payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", eventID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return nil
}
