package servicebus

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewServiceBus authenticates with the default Azure credential chain against
// the fully qualified namespace (e.g. blog.servicebus.windows.net).
func NewServiceBus(_ context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}
