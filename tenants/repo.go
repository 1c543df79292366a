package tenants

type Repo interface {
	Upsert(tenantData *Tenant) error
	Delete(schemaName string) error
	Get(schemaName string) (*Tenant, error)
	List(offset, limit int) ([]*Tenant, error)
}
