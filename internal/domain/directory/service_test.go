package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/caredesk/caredesk/internal/platform/apperr"
)

type mockRepo struct {
	doctors map[uuid.UUID]*Doctor
}

func newMockRepo() *mockRepo {
	return &mockRepo{doctors: make(map[uuid.UUID]*Doctor)}
}

func (m *mockRepo) Create(_ context.Context, d *Doctor) error {
	d.ID = uuid.New()
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, fmt.Errorf("%w: doctor", apperr.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Doctor, error) {
	for _, d := range m.doctors {
		if strings.EqualFold(d.Email, email) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: doctor", apperr.ErrNotFound)
}

func (m *mockRepo) GetByLinkedUser(_ context.Context, userID uuid.UUID) (*Doctor, error) {
	for _, d := range m.doctors {
		if d.LinkedUserID != nil && *d.LinkedUserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: doctor", apperr.ErrNotFound)
}

func (m *mockRepo) Update(_ context.Context, id uuid.UUID, upd DoctorUpdate) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, fmt.Errorf("%w: doctor", apperr.ErrNotFound)
	}
	if upd.FirstName != nil {
		d.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		d.LastName = *upd.LastName
	}
	if upd.Gender != nil {
		d.Gender = *upd.Gender
	}
	if upd.Age != nil {
		d.Age = *upd.Age
	}
	if upd.Email != nil {
		d.Email = *upd.Email
	}
	if upd.PhoneNumber != nil {
		d.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Department != nil {
		d.Department = *upd.Department
	}
	if upd.Specialization != nil {
		d.Specialization = upd.Specialization
	}
	if upd.Qualification != nil {
		d.Qualification = upd.Qualification
	}
	if upd.Experience != nil {
		d.Experience = *upd.Experience
	}
	if upd.Bio != nil {
		d.Bio = *upd.Bio
	}
	if upd.AvailableDays != nil {
		d.AvailableDays = upd.AvailableDays
	}
	if upd.Address != nil {
		if upd.Address.Street != nil {
			d.Address.Street = *upd.Address.Street
		}
		if upd.Address.City != nil {
			d.Address.City = *upd.Address.City
		}
		if upd.Address.State != nil {
			d.Address.State = *upd.Address.State
		}
		if upd.Address.PinCode != nil {
			d.Address.PinCode = *upd.Address.PinCode
		}
		if upd.Address.Country != nil {
			d.Address.Country = *upd.Address.Country
		}
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.doctors[id]; !ok {
		return fmt.Errorf("%w: doctor", apperr.ErrNotFound)
	}
	delete(m.doctors, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Doctor, int, error) {
	var items []*Doctor
	for _, d := range m.doctors {
		cp := *d
		items = append(items, &cp)
	}
	total := len(items)
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items, total, nil
}

func (m *mockRepo) SetLinkedUser(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	d, ok := m.doctors[id]
	if !ok {
		return fmt.Errorf("%w: doctor", apperr.ErrNotFound)
	}
	if d.LinkedUserID != nil {
		return fmt.Errorf("%w: doctor account already exists", apperr.ErrConflict)
	}
	d.LinkedUserID = &userID
	return nil
}

type mockCounter struct {
	counts map[uuid.UUID]int
}

func (m *mockCounter) CountOpenForDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	return m.counts[doctorID], nil
}

func validDoctor() *Doctor {
	return &Doctor{
		FirstName:      "Asha",
		LastName:       "Rao",
		Gender:         "female",
		Age:            41,
		Email:          "asha.rao@example.com",
		PhoneNumber:    "9876543210",
		Department:     "Cardiology",
		Specialization: []string{"Interventional Cardiology"},
		Qualification:  []string{"MBBS", "MD"},
		Experience:     12,
		AvailableDays:  []string{"Monday", "Wednesday"},
	}
}

func newTestService() (*Service, *mockRepo, *mockCounter) {
	repo := newMockRepo()
	counter := &mockCounter{counts: make(map[uuid.UUID]int)}
	return NewService(repo, counter), repo, counter
}

func TestCreateDoctor(t *testing.T) {
	svc, repo, _ := newTestService()

	d := validDoctor()
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if d.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
	if len(repo.doctors) != 1 {
		t.Errorf("expected 1 stored doctor, got %d", len(repo.doctors))
	}
	if d.Timetable == nil {
		t.Error("expected empty timetable map, got nil")
	}
}

func TestCreateDoctor_MissingFields(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name   string
		mutate func(*Doctor)
	}{
		{"first name", func(d *Doctor) { d.FirstName = "" }},
		{"gender", func(d *Doctor) { d.Gender = "" }},
		{"age", func(d *Doctor) { d.Age = 0 }},
		{"email", func(d *Doctor) { d.Email = "" }},
		{"phone", func(d *Doctor) { d.PhoneNumber = "" }},
		{"department", func(d *Doctor) { d.Department = "" }},
		{"specialization", func(d *Doctor) { d.Specialization = nil }},
		{"qualification", func(d *Doctor) { d.Qualification = []string{"  "} }},
		{"available days", func(d *Doctor) { d.AvailableDays = nil }},
	}
	for _, tc := range cases {
		d := validDoctor()
		tc.mutate(d)
		if err := svc.Create(context.Background(), d); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCreateDoctor_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	if err := svc.Create(context.Background(), validDoctor()); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	dup := validDoctor()
	dup.Email = "ASHA.RAO@Example.com"
	if err := svc.Create(context.Background(), dup); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict for duplicate email, got %v", err)
	}
}

func TestCreateDoctor_NormalizesSets(t *testing.T) {
	svc, _, _ := newTestService()

	d := validDoctor()
	d.Specialization = []string{" Cardiology ", "", "Echo", "Cardiology"}
	d.AvailableDays = []string{"Monday", " ", "Friday ", " Monday"}
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(d.Specialization) != 2 || d.Specialization[0] != "Cardiology" || d.Specialization[1] != "Echo" {
		t.Errorf("unexpected specialization: %v", d.Specialization)
	}
	if len(d.AvailableDays) != 2 || d.AvailableDays[1] != "Friday" {
		t.Errorf("unexpected available days: %v", d.AvailableDays)
	}
}

func TestStringList_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"single string", `"Cardiology"`, []string{"Cardiology"}},
		{"array", `["Cardiology","Echo"]`, []string{"Cardiology", "Echo"}},
		{"empty array", `[]`, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got StringList
			if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestUpdateDoctor_AddressMergesKeyByKey(t *testing.T) {
	svc, _, _ := newTestService()

	d := validDoctor()
	d.Address = Address{Street: "12 Lake Rd", City: "Pune", State: "MH", PinCode: "411001", Country: "India"}
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	city := "Mumbai"
	got, err := svc.Update(context.Background(), d.ID, DoctorUpdate{
		Address: &AddressUpdate{City: &city},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Address.City != "Mumbai" {
		t.Errorf("expected city Mumbai, got %q", got.Address.City)
	}
	if got.Address.Street != "12 Lake Rd" || got.Address.PinCode != "411001" || got.Address.Country != "India" {
		t.Errorf("untouched address fields were overwritten: %+v", got.Address)
	}
}

func TestUpdateDoctor_PartialFields(t *testing.T) {
	svc, _, _ := newTestService()

	d := validDoctor()
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	exp := 15
	got, err := svc.Update(context.Background(), d.ID, DoctorUpdate{Experience: &exp})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Experience != 15 {
		t.Errorf("expected experience 15, got %d", got.Experience)
	}
	if got.FirstName != "Asha" || got.Department != "Cardiology" {
		t.Errorf("unrelated fields changed: %+v", got)
	}
}

func TestUpdateDoctor_EmptyEmailRejected(t *testing.T) {
	svc, _, _ := newTestService()

	d := validDoctor()
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	blank := "   "
	if _, err := svc.Update(context.Background(), d.ID, DoctorUpdate{Email: &blank}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDeleteDoctor(t *testing.T) {
	svc, repo, _ := newTestService()

	d := validDoctor()
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Delete(context.Background(), d.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(repo.doctors) != 0 {
		t.Error("expected doctor to be removed")
	}
}

func TestDeleteDoctor_RefusedWithOpenAppointments(t *testing.T) {
	svc, _, counter := newTestService()

	d := validDoctor()
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	counter.counts[d.ID] = 3
	if err := svc.Delete(context.Background(), d.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict while appointments open, got %v", err)
	}
}

func TestDeleteDoctor_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.Delete(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLinkAccount(t *testing.T) {
	svc, repo, _ := newTestService()

	d := validDoctor()
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	userID := uuid.New()
	profileID, err := svc.LinkAccount(context.Background(), "Asha.Rao@example.com", userID)
	if err != nil {
		t.Fatalf("LinkAccount failed: %v", err)
	}
	if profileID != d.ID {
		t.Errorf("expected profile %s, got %s", d.ID, profileID)
	}
	stored := repo.doctors[d.ID]
	if stored.LinkedUserID == nil || *stored.LinkedUserID != userID {
		t.Error("expected link to be persisted")
	}
}

func TestLinkAccount_NoProfile(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.LinkAccount(context.Background(), "nobody@example.com", uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLinkAccount_AlreadyLinked(t *testing.T) {
	svc, _, _ := newTestService()

	d := validDoctor()
	if err := svc.Create(context.Background(), d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.LinkAccount(context.Background(), d.Email, uuid.New()); err != nil {
		t.Fatalf("first link failed: %v", err)
	}
	if _, err := svc.LinkAccount(context.Background(), d.Email, uuid.New()); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict for second link, got %v", err)
	}
}
