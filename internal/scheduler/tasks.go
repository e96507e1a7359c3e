package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskEnrichLead = "leads.enrich"

type EnrichLeadPayload struct {
	LeadID string `json:"leadId"`
}

func NewEnrichLeadTask(leadID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(EnrichLeadPayload{LeadID: leadID.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEnrichLead, data), nil
}

func ParseEnrichLeadPayload(task *asynq.Task) (uuid.UUID, error) {
	var payload EnrichLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return uuid.Nil, err
	}
	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse lead id: %w", err)
	}
	return leadID, nil
}

// enrichTaskID deduplicates pending enrichment of the same lead.
func enrichTaskID(leadID uuid.UUID) string {
	return TaskEnrichLead + ":" + leadID.String()
}
