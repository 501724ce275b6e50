package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carelink/medtrack/internal/db"
	"github.com/carelink/medtrack/internal/medicine"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "seed").Logger()

func main() {
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	patients, err := seedPatients(context.Background(), pool, 500)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedPlans(context.Background(), pool, patients, 3); err != nil {
		logger.Fatal().Err(err).Msg("seed plans")
	}
	if err := seedConnections(context.Background(), pool, patients, 200); err != nil {
		logger.Fatal().Err(err).Msg("seed family connections")
	}

	logger.Info().Msg("seed complete")
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	logger.Info().Int("count", count).Msg("seeding patients")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, gofakeit.Name(), gofakeit.Email())
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logger.Info().Msg("patients seeded")
	return ids, nil
}

var medicineNames = []string{
	"Metformin", "Lisinopril", "Atorvastatin", "Levothyroxine", "Amlodipine",
	"Omeprazole", "Losartan", "Sertraline", "Gabapentin", "Amoxicillin",
}

var reminderTimeSets = [][]string{
	{"08:00"},
	{"08:00", "20:00"},
	{"07:30", "13:00", "21:00"},
	{"09:00", "18:30"},
}

func seedPlans(ctx context.Context, pool *pgxpool.Pool, patients []uuid.UUID, perPatient int) error {
	logger.Info().Int("per_patient", perPatient).Msg("seeding medicine plans")

	forms := []medicine.Form{
		medicine.FormTablet, medicine.FormCapsule, medicine.FormSyrup,
		medicine.FormInjection, medicine.FormOther,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, patientID := range patients {
		n := gofakeit.Number(1, perPatient)
		for i := 0; i < n; i++ {
			frequency := medicine.FrequencyDaily
			var specificDays []int
			intervalDays := 0

			switch gofakeit.Number(0, 3) {
			case 1:
				frequency = medicine.FrequencySpecificDays
				specificDays = []int{1, 3, 5}
			case 2:
				frequency = medicine.FrequencyInterval
				intervalDays = gofakeit.Number(2, 7)
			case 3:
				frequency = medicine.FrequencyWeekly
			}

			startDate := time.Now().AddDate(0, 0, -gofakeit.Number(0, 60))
			var endDate *time.Time
			if gofakeit.Bool() {
				end := startDate.AddDate(0, gofakeit.Number(1, 6), 0)
				endDate = &end
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO medicine_plans (
					id, patient_id, name, dosage, form, frequency,
					specific_days, interval_days, start_date, end_date,
					reminder_times, instructions, doctor_notes, prescribed_by,
					is_active, created_at, updated_at
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULL, true, now(), now())
			`,
				uuid.New(), patientID,
				medicineNames[gofakeit.Number(0, len(medicineNames)-1)],
				fmt.Sprintf("%d mg", gofakeit.Number(1, 3)*250),
				forms[gofakeit.Number(0, len(forms)-1)],
				frequency, specificDays, intervalDays,
				startDate, endDate,
				reminderTimeSets[gofakeit.Number(0, len(reminderTimeSets)-1)],
				gofakeit.Sentence(6), "",
			)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info().Msg("medicine plans seeded")
	return nil
}

func seedConnections(ctx context.Context, pool *pgxpool.Pool, patients []uuid.UUID, count int) error {
	logger.Info().Int("count", count).Msg("seeding family connections")

	relationships := []string{"Mother", "Father", "Sibling", "Spouse", "Child"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seeded := 0
	for seeded < count && len(patients) >= 2 {
		a := patients[gofakeit.Number(0, len(patients)-1)]
		b := patients[gofakeit.Number(0, len(patients)-1)]
		if a == b {
			continue
		}

		status := "accepted"
		if gofakeit.Number(0, 4) == 0 {
			status = "pending"
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO family_connections (
				id, requester_id, recipient_id, relationship, status,
				can_view_medicine, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, true, now(), now())
			ON CONFLICT (requester_id, recipient_id) DO NOTHING
		`, uuid.New(), a, b,
			relationships[gofakeit.Number(0, len(relationships)-1)], status)
		if err != nil {
			return err
		}

		seeded++
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info().Msg("family connections seeded")
	return nil
}
