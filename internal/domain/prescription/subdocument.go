package prescription

import "encoding/json"

// Kind names a nested sub-array of a prescription as it appears in request
// paths, e.g. DELETE .../:subdocument/:customId.
type Kind string

const (
	KindChiefComplain Kind = "chiefComplain"
	KindOnExamination Kind = "onExamination"
	KindInvestigation Kind = "investigation"
	KindRadiography   Kind = "radiography"
	KindAdvices       Kind = "advices"
	KindMedications   Kind = "medications"
	KindReferDoctor   Kind = "referDoctor"
)

// kindOps binds a Kind to its ID field name and typed accessors, so adding a
// sub-array without extending this table is a compile-visible gap rather than
// a silent string miss.
type kindOps struct {
	idField string
	find    func(*Prescription, string) (any, bool)
	remove  func(*Prescription, string) bool
	update  func(*Prescription, string, json.RawMessage) (bool, error)
}

var kinds = map[Kind]kindOps{
	KindChiefComplain: {
		idField: "chiefComplainId",
		find: func(p *Prescription, id string) (any, bool) {
			return findEntry(p.ChiefComplain, id, func(e ChiefComplain) string { return e.ChiefComplainID })
		},
		remove: func(p *Prescription, id string) bool {
			var ok bool
			p.ChiefComplain, ok = removeEntry(p.ChiefComplain, id, func(e ChiefComplain) string { return e.ChiefComplainID })
			return ok
		},
		update: func(p *Prescription, id string, raw json.RawMessage) (bool, error) {
			return updateEntry(p.ChiefComplain, id, raw,
				func(e ChiefComplain) string { return e.ChiefComplainID },
				func(dst *ChiefComplain, src ChiefComplain) {
					if src.ChiefComplainName != "" {
						dst.ChiefComplainName = src.ChiefComplainName
					}
					if src.DentalChart != nil {
						dst.DentalChart = src.DentalChart
					}
				})
		},
	},
	KindOnExamination: {
		idField: "onExaminationId",
		find: func(p *Prescription, id string) (any, bool) {
			return findEntry(p.OnExamination, id, func(e OnExamination) string { return e.OnExaminationID })
		},
		remove: func(p *Prescription, id string) bool {
			var ok bool
			p.OnExamination, ok = removeEntry(p.OnExamination, id, func(e OnExamination) string { return e.OnExaminationID })
			return ok
		},
		update: func(p *Prescription, id string, raw json.RawMessage) (bool, error) {
			return updateEntry(p.OnExamination, id, raw,
				func(e OnExamination) string { return e.OnExaminationID },
				func(dst *OnExamination, src OnExamination) {
					if src.OnExaminationName != "" {
						dst.OnExaminationName = src.OnExaminationName
					}
					if src.OnExaminationArea != nil {
						dst.OnExaminationArea = src.OnExaminationArea
					}
					if src.AdditionalNotes != "" {
						dst.AdditionalNotes = src.AdditionalNotes
					}
					if src.DentalChart != nil {
						dst.DentalChart = src.DentalChart
					}
				})
		},
	},
	KindInvestigation: {
		idField: "investigationId",
		find: func(p *Prescription, id string) (any, bool) {
			return findEntry(p.Investigation, id, func(e Investigation) string { return e.InvestigationID })
		},
		remove: func(p *Prescription, id string) bool {
			var ok bool
			p.Investigation, ok = removeEntry(p.Investigation, id, func(e Investigation) string { return e.InvestigationID })
			return ok
		},
		update: func(p *Prescription, id string, raw json.RawMessage) (bool, error) {
			return updateEntry(p.Investigation, id, raw,
				func(e Investigation) string { return e.InvestigationID },
				func(dst *Investigation, src Investigation) {
					if src.InvestigationName != "" {
						dst.InvestigationName = src.InvestigationName
					}
				})
		},
	},
	KindRadiography: {
		idField: "radiographyId",
		find: func(p *Prescription, id string) (any, bool) {
			return findEntry(p.Radiography, id, func(e Radiography) string { return e.RadiographyID })
		},
		remove: func(p *Prescription, id string) bool {
			var ok bool
			p.Radiography, ok = removeEntry(p.Radiography, id, func(e Radiography) string { return e.RadiographyID })
			return ok
		},
		update: func(p *Prescription, id string, raw json.RawMessage) (bool, error) {
			return updateEntry(p.Radiography, id, raw,
				func(e Radiography) string { return e.RadiographyID },
				func(dst *Radiography, src Radiography) {
					if src.RadiographyName != "" {
						dst.RadiographyName = src.RadiographyName
					}
					if src.DentalChart != nil {
						dst.DentalChart = src.DentalChart
					}
				})
		},
	},
	KindAdvices: {
		idField: "adviceId",
		find: func(p *Prescription, id string) (any, bool) {
			return findEntry(p.Advices, id, func(e Advice) string { return e.AdviceID })
		},
		remove: func(p *Prescription, id string) bool {
			var ok bool
			p.Advices, ok = removeEntry(p.Advices, id, func(e Advice) string { return e.AdviceID })
			return ok
		},
		update: func(p *Prescription, id string, raw json.RawMessage) (bool, error) {
			return updateEntry(p.Advices, id, raw,
				func(e Advice) string { return e.AdviceID },
				func(dst *Advice, src Advice) {
					if src.AdvicesName != "" {
						dst.AdvicesName = src.AdvicesName
					}
					if src.DentalChart != nil {
						dst.DentalChart = src.DentalChart
					}
				})
		},
	},
	KindMedications: {
		idField: "medicationId",
		find: func(p *Prescription, id string) (any, bool) {
			return findEntry(p.Medications, id, func(e Medication) string { return e.MedicationID })
		},
		remove: func(p *Prescription, id string) bool {
			var ok bool
			p.Medications, ok = removeEntry(p.Medications, id, func(e Medication) string { return e.MedicationID })
			return ok
		},
		update: func(p *Prescription, id string, raw json.RawMessage) (bool, error) {
			return updateEntry(p.Medications, id, raw,
				func(e Medication) string { return e.MedicationID },
				func(dst *Medication, src Medication) {
					if src.MedicineBrandName != "" {
						dst.MedicineBrandName = src.MedicineBrandName
					}
					overlayMedication(dst, src)
				})
		},
	},
	KindReferDoctor: {
		idField: "referDoctorId",
		find: func(p *Prescription, id string) (any, bool) {
			return findEntry(p.ReferDoctor, id, func(e ReferDoctor) string { return e.ReferDoctorID })
		},
		remove: func(p *Prescription, id string) bool {
			var ok bool
			p.ReferDoctor, ok = removeEntry(p.ReferDoctor, id, func(e ReferDoctor) string { return e.ReferDoctorID })
			return ok
		},
		update: func(p *Prescription, id string, raw json.RawMessage) (bool, error) {
			return updateEntry(p.ReferDoctor, id, raw,
				func(e ReferDoctor) string { return e.ReferDoctorID },
				func(dst *ReferDoctor, src ReferDoctor) {
					if src.ReferDoctorName != "" {
						dst.ReferDoctorName = src.ReferDoctorName
					}
				})
		},
	},
}

func (k Kind) IsValid() bool {
	_, ok := kinds[k]
	return ok
}

// IDField returns the name of the custom-ID field for this kind, e.g.
// medications → medicationId.
func (k Kind) IDField() string {
	return kinds[k].idField
}

// FindSubItem resolves an entry by kind and custom ID.
func (p *Prescription) FindSubItem(kind Kind, customID string) (any, bool) {
	ops, ok := kinds[kind]
	if !ok {
		return nil, false
	}
	return ops.find(p, customID)
}

// RemoveSubItem deletes the entry addressed by kind + custom ID, leaving
// siblings untouched. Returns false when nothing matched.
func (p *Prescription) RemoveSubItem(kind Kind, customID string) bool {
	ops, ok := kinds[kind]
	if !ok {
		return false
	}
	return ops.remove(p, customID)
}

// UpdateSubItem overlays the JSON payload onto the entry addressed by
// kind + custom ID. Returns ErrUnknownSubdocument for an unrecognized kind
// and (false, nil) when the ID did not resolve.
func (p *Prescription) UpdateSubItem(kind Kind, customID string, raw json.RawMessage) (bool, error) {
	ops, ok := kinds[kind]
	if !ok {
		return false, ErrUnknownSubdocument
	}
	return ops.update(p, customID, raw)
}

func findEntry[E any](entries []E, id string, idOf func(E) string) (any, bool) {
	for i := range entries {
		if idOf(entries[i]) == id {
			return entries[i], true
		}
	}
	return nil, false
}

func removeEntry[E any](entries []E, id string, idOf func(E) string) ([]E, bool) {
	for i := range entries {
		if idOf(entries[i]) == id {
			return append(entries[:i], entries[i+1:]...), true
		}
	}
	return entries, false
}

func updateEntry[E any](entries []E, id string, raw json.RawMessage, idOf func(E) string, overlay func(*E, E)) (bool, error) {
	for i := range entries {
		if idOf(entries[i]) != id {
			continue
		}
		var src E
		if err := json.Unmarshal(raw, &src); err != nil {
			return false, err
		}
		overlay(&entries[i], src)
		return true, nil
	}
	return false, nil
}
