// Package topology declares the WordPress deployment: a three-tier VPC, a
// MySQL instance in the isolated tier, an ECS cluster on an autoscaling
// group in the private tier, a load-balanced WordPress service and a public
// DNS record pointing at it.
//
// Build is pure. It reads nothing but its Config and returns a new stack on
// every call; creation order is left to the dependency graph.
package topology

import (
	"fmt"
	"time"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/config"
	"github.com/wpstack/wpstack/internal/stack"
	"github.com/wpstack/wpstack/intrinsics"
)

// Description is the template description.
const Description = "WordPress on ECS with RDS MySQL behind an Application Load Balancer"

// Result is a built topology.
type Result struct {
	Stack *stack.Stack
	// Config is the configuration the stack was built from.
	Config config.Config
	// Subnets is the CIDR allocation, in tier then zone order.
	Subnets []SubnetBlock
	// Credentials reports where the database password comes from.
	Credentials config.CredentialSource
	// RecordTTL is the configured record TTL. Alias records are not
	// rendered with a TTL.
	RecordTTL time.Duration
}

type builder struct {
	cfg    config.Config
	stack  *stack.Stack
	names  map[string]string
	result *Result

	net         *network
	sg          securityGroups
	creds       credentials
	db          *stack.Declaration
	cluster     *stack.Declaration
	asg         *stack.Declaration
	association *stack.Declaration
	lb          *stack.Declaration
	zone53      *stack.Declaration
}

// Build validates cfg and declares the complete topology.
func Build(cfg config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		cfg:   cfg,
		stack: stack.New(Description),
		names: make(map[string]string),
		result: &Result{
			Config:      cfg,
			Credentials: cfg.CredentialSource(),
		},
	}

	if err := b.declareNetwork(); err != nil {
		return nil, fmt.Errorf("declaring network: %w", err)
	}
	b.declareSecurity()
	b.declareDatabase()
	b.declareCompute()
	b.declareService()
	b.declareDNS()
	b.declareOutputs()

	if err := b.applyTags(); err != nil {
		return nil, err
	}
	if err := b.stack.Err(); err != nil {
		return nil, err
	}

	b.result.Stack = b.stack
	b.result.Subnets = b.net.blocks
	return b.result, nil
}

func (b *builder) declareOutputs() {
	st := b.stack

	st.AddOutput(OutputLoadBalancerDNS, wpstack.Output{
		Description: "Load balancer DNS name",
		Value:       b.lb.GetAtt("DNSName"),
	})
	st.AddOutput(OutputServiceURL, wpstack.Output{
		Description: "WordPress URL",
		Value:       "http://" + b.cfg.RecordFQDN(),
	})
	st.AddOutput(OutputDatabaseEndpoint, wpstack.Output{
		Description: "Database endpoint address",
		Value:       b.db.GetAtt("Endpoint.Address"),
	})
	st.AddOutput(OutputNameServers, wpstack.Output{
		Description: "Name servers to delegate to at the registrar",
		Value:       intrinsics.JoinList{Delimiter: ",", List: b.zone53.GetAtt("NameServers")},
	})
	if b.creds.source == config.CredentialGeneratedSecret {
		st.AddOutput(OutputDatabaseSecret, wpstack.Output{
			Description: "Secret holding the generated database credentials",
			Value:       intrinsics.Ref{LogicalName: DatabaseSecretID},
		})
	}
}
