package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smarthealth/clinic/internal/config"
	"github.com/smarthealth/clinic/internal/domain/directory"
	"github.com/smarthealth/clinic/internal/platform/db"
)

// usersCmd provisions accounts. Sign-up flows live in the identity provider;
// this creates the matching clinic records.
func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Provision patient and doctor accounts",
	}

	var patient directory.PatientRegistration
	addPatient := &cobra.Command{
		Use:   "add-patient",
		Short: "Create a patient account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDirectory(cmd, func(ctx context.Context, svc *directory.Service) error {
				u, _, err := svc.RegisterPatient(ctx, patient)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created patient %s (%s)\n", u.Username, u.ID)
				return nil
			})
		},
	}
	f := addPatient.Flags()
	f.StringVar(&patient.Username, "username", "", "Login name")
	f.StringVar(&patient.Email, "email", "", "Email address")
	f.StringVar(&patient.FirstName, "first-name", "", "First name")
	f.StringVar(&patient.LastName, "last-name", "", "Last name")
	f.StringVar(&patient.Phone, "phone", "", "Phone number")
	f.StringVar(&patient.BloodGroup, "blood-group", "", "Blood group, e.g. O+")
	cmd.AddCommand(addPatient)

	var doctor directory.DoctorRegistration
	addDoctor := &cobra.Command{
		Use:   "add-doctor",
		Short: "Create a doctor account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDirectory(cmd, func(ctx context.Context, svc *directory.Service) error {
				u, d, err := svc.RegisterDoctor(ctx, doctor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created doctor %s (user %s, doctor %s, fee %s)\n",
					u.Username, u.ID, d.ID, d.ConsultationFee.StringFixed(2))
				return nil
			})
		},
	}
	f = addDoctor.Flags()
	f.StringVar(&doctor.Username, "username", "", "Login name")
	f.StringVar(&doctor.Email, "email", "", "Email address")
	f.StringVar(&doctor.FirstName, "first-name", "", "First name")
	f.StringVar(&doctor.LastName, "last-name", "", "Last name")
	f.StringVar(&doctor.Phone, "phone", "", "Phone number")
	f.StringVar(&doctor.Specialty, "specialization", "", "Specialty key, e.g. cardiologist")
	f.StringVar(&doctor.LicenseNumber, "license", "", "Medical license number")
	f.IntVar(&doctor.ExperienceYears, "experience", 0, "Years of experience")
	f.StringVar(&doctor.ConsultationFee, "fee", "", "Consultation fee (default 500.00)")
	cmd.AddCommand(addDoctor)

	return cmd
}

func withDirectory(cmd *cobra.Command, fn func(ctx context.Context, svc *directory.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := directory.NewService(
		directory.NewUserRepoPG(pool),
		directory.NewDoctorRepoPG(pool),
		directory.NewPatientRepoPG(pool),
		func(ctx context.Context, fn func(context.Context) error) error { return db.RunInTx(ctx, pool, fn) },
	)
	return fn(ctx, svc)
}
