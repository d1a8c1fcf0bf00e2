package services

// ServiceContainer bundles the services handed to the HTTP layer at startup.
type ServiceContainer struct {
	Account     AccountSvcFacade
	Transaction TransactionSvcFacade
	Token       TokenSvcFacade
}
