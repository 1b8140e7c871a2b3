package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/psds-microservice/backoffice-service/internal/database"
	"github.com/psds-microservice/backoffice-service/internal/kafka"
	"github.com/psds-microservice/backoffice-service/internal/repository"
	"github.com/psds-microservice/backoffice-service/internal/searchindex"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const reindexPageSize = 200

var reindexSearchCmd = &cobra.Command{
	Use:   "reindex-search",
	Short: "Reindex all tickets into search. Prefers Kafka; falls back to HTTP if SEARCH_SERVICE_URL set.",
	RunE:  runReindexSearch,
}

func init() {
	rootCmd.AddCommand(reindexSearchCmd)
}

func runReindexSearch(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	conn, err := database.Open(cfg.DSN(), log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	tickets := repository.NewTicketRepository(conn)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket, log)
	defer producer.Close()
	search := searchindex.NewClient(cfg.SearchServiceURL, log)

	// Prefer Kafka, then HTTP
	var index func(ctx context.Context, f repository.TicketFilter) (int, error)
	switch {
	case producer.Enabled():
		log.Info("reindex-search: using Kafka for reindexing")
		index = func(ctx context.Context, f repository.TicketFilter) (int, error) {
			page, _, err := tickets.List(ctx, f)
			if err != nil {
				return 0, err
			}
			for i := range page {
				if err := producer.PublishTicket(ctx, "ticket.reindexed", &page[i]); err != nil {
					return i, err
				}
			}
			return len(page), nil
		}
	case search.Enabled():
		log.Info("reindex-search: using HTTP for reindexing")
		index = func(ctx context.Context, f repository.TicketFilter) (int, error) {
			page, _, err := tickets.List(ctx, f)
			if err != nil {
				return 0, err
			}
			for i := range page {
				if err := search.IndexTicket(ctx, &page[i]); err != nil {
					log.Warn("reindex-search: index failed", zap.String("ticket_id", page[i].ID), zap.Error(err))
				}
			}
			return len(page), nil
		}
	default:
		log.Warn("reindex-search: neither KAFKA_BROKERS nor SEARCH_SERVICE_URL set; normal indexing is via Kafka (search-service worker)")
		return nil
	}

	total := 0
	for offset := 0; ; offset += reindexPageSize {
		n, err := index(ctx, repository.TicketFilter{Limit: reindexPageSize, Offset: offset, WithMessages: true})
		total += n
		if err != nil {
			return fmt.Errorf("reindex at offset %d: %w", offset, err)
		}
		log.Info("reindex-search: progress", zap.Int("sent", total))
		if n < reindexPageSize {
			break
		}
	}
	log.Info("reindex-search: done", zap.Int("tickets", total))
	return nil
}
