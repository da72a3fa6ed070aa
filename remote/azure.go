package remote

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azappconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type azureStore struct {
	client *azappconfig.Client
}

// NewAzureStore opens an Azure App Configuration client. No request is made here.
func NewAzureStore(cs ConnectionString) (Store, error) {
	client, err := azappconfig.NewClientFromConnectionString(cs.Value(), &azappconfig.ClientOptions{
		ClientOptions: azcore.ClientOptions{Transport: newHTTPClient()},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "app configuration client for %s", cs.Endpoint)
	}
	return &azureStore{client: client}, nil
}

func (s *azureStore) FeatureFlags(ctx context.Context, label string) ([]Flag, error) {
	pager := s.client.NewListSettingsPager(azappconfig.SettingSelector{
		KeyFilter:   to.Ptr(FeatureFlagPrefix + "*"),
		LabelFilter: to.Ptr(label),
	}, nil)

	var out []Flag
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "list feature flags")
		}
		for _, setting := range page.Settings {
			if setting.Key == nil || setting.Value == nil {
				continue
			}
			f, err := parseFlag(*setting.Key, *setting.Value)
			if err != nil {
				log.WithError(err).WithField("key", *setting.Key).Warn("skipping malformed feature flag")
				continue
			}
			f.Label = label
			out = append(out, f)
		}
	}
	return out, nil
}

// newHTTPClient returns a client with sensible timeouts for the store.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 20 * time.Second,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConns:          10,
			MaxConnsPerHost:       4,
		},
	}
}
