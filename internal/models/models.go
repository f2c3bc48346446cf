// package models defines the data model for the emoji migration tool
package models

// Model defines the base interface for persisted ledger records.
type Model interface {
	Key() string     // Key returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error        // Create inserts a new model into the database
	Get(id string) (T, error)    // Get retrieves a model by its ID
	Update(model T) error        // Update modifies an existing model in the database
	List(limit int) ([]T, error) // List retrieves the most recent models, newest first
}
