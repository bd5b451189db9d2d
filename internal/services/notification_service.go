package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"frota-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService сохраняет уведомления в базе и отправляет их
// во внешний webhook в режиме fire-and-forget: ошибка доставки
// записывается в саму запись и не влияет на вызвавшую операцию.
type NotificationService struct {
	db         *gorm.DB
	webhookURL string
	client     *http.Client
}

type webhookPayload struct {
	Key   string            `json:"key"`
	Kind  string            `json:"kind"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db:         db,
		webhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify создает запись уведомления и пытается доставить её.
// Возвращаемая ошибка касается только записи в базу: сбой доставки
// фиксируется в поле Error и наружу не поднимается.
func (s *NotificationService) Notify(municipalityID uint, userID, driverID *uint, kind, title, body string) *models.Notification {
	n := &models.Notification{
		Key:            uuid.NewString(),
		MunicipalityID: municipalityID,
		UserID:         userID,
		DriverID:       driverID,
		Kind:           kind,
		Title:          title,
		Body:           body,
	}
	if err := s.db.Create(n).Error; err != nil {
		log.Printf("Ошибка при сохранении уведомления: %v", err)
		return n
	}

	if err := s.deliver(n); err != nil {
		// Корректность состояния важнее гарантий доставки:
		// ошибку только записываем
		n.Error = err.Error()
		s.db.Model(n).Updates(map[string]interface{}{"error": n.Error})
		log.Printf("Ошибка доставки уведомления %s: %v", n.Key, err)
		return n
	}

	now := time.Now()
	n.Sent = true
	n.SentAt = &now
	s.db.Model(n).Updates(map[string]interface{}{"sent": true, "sent_at": now})
	return n
}

func (s *NotificationService) deliver(n *models.Notification) error {
	if s.webhookURL == "" {
		return nil
	}

	payload := webhookPayload{
		Key:   n.Key,
		Kind:  n.Kind,
		Title: n.Title,
		Body:  n.Body,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling notification: %v", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error sending notification: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned error: %v", resp.Status)
	}
	return nil
}
