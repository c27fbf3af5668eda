package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/cnquant/internal/scheduler"
	"github.com/wonny/cnquant/pkg/logger"
)

// JobController exposes scheduler state and manual triggers
type JobController interface {
	GetJobStats() map[string]scheduler.JobStats
	RunJob(jobName string) error
}

// JobHandler serves scheduler endpoints
type JobHandler struct {
	jobs   JobController
	logger *logger.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs JobController, log *logger.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, logger: log}
}

// List returns statistics for every registered job
// GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.jobs.GetJobStats()})
}

// Run triggers a job outside its schedule
// POST /api/jobs/{name}/run
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.jobs.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]string{"job": name, "status": "started"})
}
