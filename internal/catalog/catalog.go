package catalog

// Service is an immutable catalog entry. Prices are whole-rupee amounts and
// are snapshotted onto appointments at booking time.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Price       int64  `json:"price"`
}

// Doctor is a catalog entry for the practitioner directory.
type Doctor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialty      string `json:"specialty"`
	Qualifications string `json:"qualifications"`
	Experience     string `json:"experience"`
	Image          string `json:"image"`
}

// DoctorAvailability is the human-readable availability blurb shared with the
// assistant's prompts and the suggestion flow.
const DoctorAvailability = "Available Monday to Friday from 9:00 AM to 5:00 PM. " +
	"Lunch break from 12:00 PM to 1:00 PM. Limited slots on Saturday from " +
	"10:00 AM to 2:00 PM for urgent cases only."

// Catalog holds the seeded reference data. It is populated once at process
// start and never mutated afterwards, so reads need no locking.
type Catalog struct {
	services  []Service
	doctors   []Doctor
	slots     []string
	byID      map[string]Service
	slotIndex map[string]struct{}
}

// New builds a catalog from explicit reference data.
func New(services []Service, doctors []Doctor, slots []string) *Catalog {
	byID := make(map[string]Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}
	slotIndex := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		slotIndex[slot] = struct{}{}
	}
	return &Catalog{
		services:  services,
		doctors:   doctors,
		slots:     slots,
		byID:      byID,
		slotIndex: slotIndex,
	}
}

// Default returns a catalog seeded with the built-in reference data.
func Default() *Catalog {
	return New(seedServices(), seedDoctors(), seedSlots())
}

// Services returns all catalog services.
func (c *Catalog) Services() []Service {
	return c.services
}

// Doctors returns the practitioner directory.
func (c *Catalog) Doctors() []Doctor {
	return c.doctors
}

// Slots returns the bookable time-slot labels.
func (c *Catalog) Slots() []string {
	return c.slots
}

// ServiceByID looks up a service by its stable key.
func (c *Catalog) ServiceByID(id string) (Service, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// KnownSlot reports whether a time-slot label is one the catalog offers.
func (c *Catalog) KnownSlot(label string) bool {
	_, ok := c.slotIndex[label]
	return ok
}

func seedServices() []Service {
	return []Service{
		{
			ID:          "general-consultation",
			Name:        "General Consultation",
			Description: "Comprehensive health check-ups and consultations with experienced general practitioners.",
			Image:       "/doctors/general-consultancy.png",
			Price:       4000,
		},
		{
			ID:          "cardiology",
			Name:        "Cardiology",
			Description: "Specialized heart care including diagnostics, treatment, and prevention of cardiovascular diseases.",
			Image:       "/doctors/cardiology1.jpg",
			Price:       12000,
		},
		{
			ID:          "physiotherapy",
			Name:        "Physiotherapy",
			Description: "Rehabilitation services to help restore movement and function after injury or illness.",
			Image:       "/doctors/physiotherapy1.png",
			Price:       6000,
		},
		{
			ID:          "dermatology",
			Name:        "Dermatology",
			Description: "Expert care for skin, hair, and nail conditions, including cosmetic dermatology.",
			Image:       "/doctors/dermatology.png",
			Price:       8000,
		},
		{
			ID:          "ophthalmology",
			Name:        "Ophthalmology",
			Description: "Comprehensive eye care services, from routine exams to advanced surgical procedures.",
			Image:       "/doctors/optics.png",
			Price:       9600,
		},
		{
			ID:          "pediatrics",
			Name:        "Pediatrics",
			Description: "Dedicated healthcare for infants, children, and adolescents, ensuring their healthy development.",
			Image:       "/doctors/child.png",
			Price:       4800,
		},
	}
}

func seedDoctors() []Doctor {
	return []Doctor{
		{
			ID:             "dr-emily-carter",
			Name:           "Dr. Emily Carter",
			Specialty:      "General Physician",
			Qualifications: "MD, FACP",
			Experience:     "12+ years of practice",
			Image:          "/doctors/doctor1.png",
		},
		{
			ID:             "dr-benjamin-lee",
			Name:           "Dr. Benjamin Lee",
			Specialty:      "Cardiologist",
			Qualifications: "MD, FACC, PhD",
			Experience:     "15+ years in heart care",
			Image:          "/doctors/doctor2.png",
		},
		{
			ID:             "dr-olivia-davis",
			Name:           "Dr. Olivia Davis",
			Specialty:      "Pediatrician",
			Qualifications: "MD, FAAP",
			Experience:     "8+ years with children",
			Image:          "/doctors/doctor3.png",
		},
		{
			ID:             "dr-marcus-chen",
			Name:           "Dr. Marcus Chen",
			Specialty:      "Dermatologist",
			Qualifications: "MD, FAAD",
			Experience:     "10+ years in skin health",
			Image:          "/doctors/doctor4.png",
		},
		{
			ID:             "dr-sophia-miller",
			Name:           "Dr. Sophia Miller",
			Specialty:      "Orthopedic Surgeon",
			Qualifications: "MD, FRCS",
			Experience:     "7+ years in orthopedics",
			Image:          "/doctors/doctor7.png",
		},
		{
			ID:             "dr-david-wilson",
			Name:           "Dr. David Wilson",
			Specialty:      "Neurologist",
			Qualifications: "MD, PhD, FAAN",
			Experience:     "18+ years in neurological care",
			Image:          "/doctors/doctor6.png",
		},
	}
}

func seedSlots() []string {
	return []string{
		"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
		"01:00 PM", "01:30 PM", "02:00 PM", "02:30 PM", "03:00 PM", "03:30 PM",
		"04:00 PM", "04:30 PM",
	}
}
