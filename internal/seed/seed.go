// Package seed fills an empty store with plausible recruiting data so the
// UI has something to render on first run.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/talentflow/dataservice/internal/assessment"
	"github.com/talentflow/dataservice/internal/candidate"
	"github.com/talentflow/dataservice/internal/job"
)

// Options sizes a seeding run. Zero values take the stock board: 25 jobs,
// 1000 candidates.
type Options struct {
	Jobs       int
	Candidates int
	Seed       uint64
}

type Seeder struct {
	jobs        *job.Store
	candidates  *candidate.Store
	assessments *assessment.Store
}

func New(jobs *job.Store, candidates *candidate.Store, assessments *assessment.Store) *Seeder {
	return &Seeder{jobs: jobs, candidates: candidates, assessments: assessments}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-]`)

func slugify(title string) string {
	s := strings.ToLower(title)
	s = strings.Join(strings.Fields(s), "-")
	return slugStrip.ReplaceAllString(s, "")
}

// fixedJobs always exist so the seeded assessments have stable homes.
var fixedJobs = []struct {
	Title string
	Tags  []string
}{
	{"Senior React Developer", []string{"React", "TypeScript", "Frontend", "Senior"}},
	{"Node.js Backend Engineer", []string{"Node.js", "Backend", "JavaScript", "API"}},
	{"Engineering Manager", []string{"Management", "Leadership", "Engineering", "Senior"}},
}

var stages = []candidate.Stage{
	candidate.StageApplied, candidate.StageScreen, candidate.StageTech,
	candidate.StageOffer, candidate.StageHired, candidate.StageRejected,
}

var jobTags = []string{"Full-time", "Remote", "Contract", "Engineering"}

// Run seeds jobs, candidates, and assessments. Candidates land on their
// target stage through the stage engine, so each one carries a real
// timeline instead of a bare row.
func (s *Seeder) Run(opts Options) error {
	if opts.Jobs <= 0 {
		opts.Jobs = 25
	}
	if opts.Candidates <= 0 {
		opts.Candidates = 1000
	}
	faker := gofakeit.New(opts.Seed)
	rng := rand.New(rand.NewSource(int64(opts.Seed)))

	var jobs []*job.Job
	for _, f := range fixedJobs {
		j, err := s.jobs.Create(f.Title, slugify(f.Title)+"-"+uuid.NewString()[:5], f.Tags)
		if err != nil {
			return fmt.Errorf("seed job %q: %w", f.Title, err)
		}
		jobs = append(jobs, j)
	}
	for i := len(fixedJobs); i < opts.Jobs; i++ {
		title := faker.JobTitle()
		tags := pick(rng, jobTags, 1+rng.Intn(3))
		j, err := s.jobs.Create(title, slugify(title)+"-"+uuid.NewString()[:5], tags)
		if err != nil {
			return fmt.Errorf("seed job %q: %w", title, err)
		}
		if rng.Float64() < 0.3 {
			archived := job.StatusArchived
			if _, err := s.jobs.Update(j.ID, job.Patch{Status: &archived}); err != nil {
				return fmt.Errorf("archive seeded job: %w", err)
			}
		}
		jobs = append(jobs, j)
	}
	log.Printf("seeded %d jobs", len(jobs))

	for i := 0; i < opts.Candidates; i++ {
		j := jobs[rng.Intn(len(jobs))]
		c, err := s.candidates.Create(faker.Name(), faker.Email(), j.ID, candidate.StageApplied)
		if err != nil {
			return fmt.Errorf("seed candidate: %w", err)
		}
		if target := stages[rng.Intn(len(stages))]; target != candidate.StageApplied {
			if err := s.candidates.SetStage(c.ID, target); err != nil {
				return fmt.Errorf("seed candidate stage: %w", err)
			}
		}
	}
	log.Printf("seeded %d candidates", opts.Candidates)

	for i, j := range jobs[:len(fixedJobs)] {
		if _, err := s.assessments.Save(j.ID, sampleAssessment(i)); err != nil {
			return fmt.Errorf("seed assessment for %s: %w", j.Slug, err)
		}
	}
	log.Printf("seeded %d assessments", len(fixedJobs))
	return nil
}

func pick(rng *rand.Rand, from []string, n int) []string {
	idx := rng.Perm(len(from))
	if n > len(from) {
		n = len(from)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = from[idx[i]]
	}
	return out
}

func intp(n int) *int { return &n }

// sampleAssessment builds a question set with the shapes the builder UI
// supports, including a conditionally shown question.
func sampleAssessment(variant int) []assessment.Question {
	base := []assessment.Question{
		{ID: "q1", Type: assessment.SingleChoice, Label: "Are you authorized to work in this country?",
			Options: []string{"Yes", "No"}, Validation: &assessment.Validation{Required: true}},
		{ID: "q2", Type: assessment.SingleChoice, Label: "Are you willing to relocate?",
			Options: []string{"Yes", "No"}},
		{ID: "q3", Type: assessment.ShortText, Label: "Which city would you prefer?",
			Condition:  &assessment.Condition{QuestionID: "q2", Value: "Yes"},
			Validation: &assessment.Validation{MaxLength: intp(100)}},
		{ID: "q4", Type: assessment.Numeric, Label: "Years of relevant experience",
			Validation: &assessment.Validation{Required: true, Min: intp(0), Max: intp(50)}},
		{ID: "q5", Type: assessment.MultiChoice, Label: "Which of these have you worked with?",
			Options: []string{"REST APIs", "GraphQL", "WebSockets", "gRPC"}},
		{ID: "q6", Type: assessment.LongText, Label: "Describe a project you are proud of.",
			Validation: &assessment.Validation{Required: true, MaxLength: intp(2000)}},
		{ID: "q7", Type: assessment.File, Label: "Upload a recent portfolio or writing sample."},
	}
	if variant == 2 {
		// manager track swaps the portfolio ask for a leadership prompt
		base[6] = assessment.Question{ID: "q7", Type: assessment.LongText,
			Label:      "Tell us about a time you grew an engineer on your team.",
			Validation: &assessment.Validation{MaxLength: intp(2000)}}
	}
	return base
}
