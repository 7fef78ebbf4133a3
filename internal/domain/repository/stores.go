package repository

// Stores regroupe les ports de persistance liés à une même transaction.
// Le TxRunner de l'infrastructure en construit une instance attachée à la tx.
type Stores struct {
	Documents     DocumentRepository
	Products      ProductRepository
	Clients       ClientRepository
	Substitutions SubstitutionRepository
	Sequences     SequenceRepository
	Tracking      TrackingRepository
}
