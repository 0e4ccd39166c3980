package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talentflow/dataservice/internal/api"
	"github.com/talentflow/dataservice/internal/assessment"
	"github.com/talentflow/dataservice/internal/candidate"
	"github.com/talentflow/dataservice/internal/config"
	"github.com/talentflow/dataservice/internal/db"
	"github.com/talentflow/dataservice/internal/fault"
	"github.com/talentflow/dataservice/internal/job"
	"github.com/talentflow/dataservice/internal/seed"
	"github.com/talentflow/dataservice/internal/sim"
)

func main() {
	root := &cobra.Command{
		Use:   "talentflow",
		Short: "Local recruiting data service with a simulated flaky API",
	}
	root.AddCommand(serveCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStores(cfg *config.Config) (*db.Store, *job.Store, *candidate.Store, *assessment.Store, error) {
	d, err := db.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return d, job.NewStore(d), candidate.NewStore(d), assessment.NewStore(d), nil
}

func buildInjector(cfg *config.Config) (fault.Injector, error) {
	if cfg.NoFaults {
		return fault.None{}, nil
	}
	profiles := fault.DefaultProfiles()
	if cfg.FaultProfile != "" {
		var err error
		profiles, err = fault.LoadProfiles(cfg.FaultProfile)
		if err != nil {
			return nil, err
		}
	}
	seedVal := cfg.FaultSeed
	if seedVal == 0 {
		seedVal = time.Now().UnixNano()
	}
	return fault.NewRandom(seedVal, profiles), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the simulated recruiting API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			d, jobs, candidates, assessments, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			inject, err := buildInjector(cfg)
			if err != nil {
				return err
			}

			router := api.NewRouter(sim.New(jobs, candidates, assessments, inject))
			server := &http.Server{
				Addr:         cfg.Addr(),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			done := make(chan os.Signal, 1)
			signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				log.Printf("Listening on %s (data dir %s)", cfg.Addr(), cfg.DataDir)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("server error: %v", err)
				}
			}()

			<-done
			log.Println("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
}

func seedCmd() *cobra.Command {
	var jobCount, candidateCount int
	var seedVal uint64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the store with sample jobs, candidates, and assessments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			d, jobs, candidates, assessments, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			// seeding writes directly; no injected latency or failures
			return seed.New(jobs, candidates, assessments).Run(seed.Options{
				Jobs:       jobCount,
				Candidates: candidateCount,
				Seed:       seedVal,
			})
		},
	}
	cmd.Flags().IntVar(&jobCount, "jobs", 25, "number of jobs to create")
	cmd.Flags().IntVar(&candidateCount, "candidates", 1000, "number of candidates to create")
	cmd.Flags().Uint64Var(&seedVal, "seed", 0, "random seed for generated data")
	return cmd
}
