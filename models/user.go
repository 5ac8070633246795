// models/user.go
package models

// Pet is embedded in a Profile and has no identity of its own.
type Pet struct {
	Name  string `bson:"name" json:"name" firestore:"name"`
	Breed string `bson:"breed" json:"breed" firestore:"breed"`
	Type  string `bson:"type" json:"type" firestore:"type"`
}

// Profile is the signed-in customer's Session: identity plus the
// denormalized profile document fields.
type Profile struct {
	ID    string `bson:"_id" json:"id" firestore:"id"`
	Name  string `bson:"name" json:"name" firestore:"name"`
	Email string `bson:"email" json:"email" firestore:"email"`
	Phone string `bson:"phone" json:"phone" firestore:"phone"`
	Pets  []Pet  `bson:"pets" json:"pets" firestore:"pets"`
}

// Clone returns a deep copy so callers never share the Pets backing array.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Pets = append([]Pet{}, p.Pets...)
	return &cp
}
