// Package validation checks a rendered template against the structural
// guarantees of the WordPress topology, and lints it with cfn-lint-go.
//
// The checks work on the rendered template only. They find resources by
// CloudFormation type and follow Ref/Fn::GetAtt links, so they hold for any
// template with the same shape, not just the one the topology package builds.
package validation

import (
	"fmt"
	"net"
	"reflect"
	"sort"
	"strconv"
	"strings"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/config"
	"github.com/wpstack/wpstack/internal/graph"
)

// CloudFormation types inspected by the checks.
const (
	typeSubnet         = "AWS::EC2::Subnet"
	typeRoute          = "AWS::EC2::Route"
	typeAssociation    = "AWS::EC2::SubnetRouteTableAssociation"
	typeSecurityGroup  = "AWS::EC2::SecurityGroup"
	typeIngress        = "AWS::EC2::SecurityGroupIngress"
	typeEgress         = "AWS::EC2::SecurityGroupEgress"
	typeLaunchTemplate = "AWS::EC2::LaunchTemplate"
	typeVPC            = "AWS::EC2::VPC"
	typeDBInstance     = "AWS::RDS::DBInstance"
	typeDBSubnetGroup  = "AWS::RDS::DBSubnetGroup"
	typeASG            = "AWS::AutoScaling::AutoScalingGroup"
	typeScalableTarget = "AWS::ApplicationAutoScaling::ScalableTarget"
	typeService        = "AWS::ECS::Service"
	typeTaskDefinition = "AWS::ECS::TaskDefinition"
	typeListener       = "AWS::ElasticLoadBalancingV2::Listener"
	typeLoadBalancer   = "AWS::ElasticLoadBalancingV2::LoadBalancer"
	typeRecordSet      = "AWS::Route53::RecordSet"
)

const (
	envDBHost     = "WORDPRESS_DB_HOST"
	envDBUser     = "WORDPRESS_DB_USER"
	envDBPassword = "WORDPRESS_DB_PASSWORD"
	envDBName     = "WORDPRESS_DB_NAME"
)

// subnet tiers, by default route
const (
	tierPublic   = "public"
	tierNAT      = "private"
	tierIsolated = "isolated"
)

const (
	anywhere             = "0.0.0.0/0"
	secretsManagerPrefix = "{{resolve:secretsmanager:"
)

// CheckStack verifies the topology invariants of a rendered template.
func CheckStack(t *wpstack.Template, cfg config.Config) wpstack.ValidateResult {
	c := &checker{t: t, cfg: cfg}

	c.checkSubnets()
	c.checkDatabasePlacement()
	c.checkDatabaseSecurityGroup()
	c.checkCapacity()
	c.checkContainerEnvironment()
	c.checkDNSAlias()

	return wpstack.ValidateResult{
		Success:   len(c.errs) == 0,
		Resources: len(t.Resources),
		Errors:    c.errs,
		Warnings:  c.warns,
	}
}

type checker struct {
	t     *wpstack.Template
	cfg   config.Config
	errs  []string
	warns []string
	tiers map[string]string
}

func (c *checker) errorf(format string, args ...any) {
	c.errs = append(c.errs, fmt.Sprintf(format, args...))
}

func (c *checker) warnf(format string, args ...any) {
	c.warns = append(c.warns, fmt.Sprintf(format, args...))
}

func (c *checker) ofType(cfType string) []string {
	var ids []string
	for id, r := range c.t.Resources {
		if r.Type == cfType {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (c *checker) props(id string) map[string]any {
	return c.t.Resources[id].Properties
}

func (c *checker) isType(id, cfType string) bool {
	r, ok := c.t.Resources[id]
	return ok && r.Type == cfType
}

// subnetTiers classifies subnets by their route table's default route:
// via an internet gateway (public), via a NAT gateway (private) or none
// (isolated).
func (c *checker) subnetTiers() map[string]string {
	if c.tiers != nil {
		return c.tiers
	}

	tableTier := make(map[string]string)
	for _, id := range c.ofType(typeRoute) {
		p := c.props(id)
		if p["DestinationCidrBlock"] != anywhere {
			continue
		}
		table, _ := refTarget(p["RouteTableId"])
		switch {
		case p["GatewayId"] != nil:
			tableTier[table] = tierPublic
		case p["NatGatewayId"] != nil:
			tableTier[table] = tierNAT
		}
	}

	c.tiers = make(map[string]string)
	for _, id := range c.ofType(typeSubnet) {
		c.tiers[id] = tierIsolated
	}
	for _, id := range c.ofType(typeAssociation) {
		p := c.props(id)
		subnet, _ := refTarget(p["SubnetId"])
		table, _ := refTarget(p["RouteTableId"])
		if tier, ok := tableTier[table]; ok {
			c.tiers[subnet] = tier
		}
	}
	return c.tiers
}

func (c *checker) checkSubnets() {
	masks := map[string]int{
		tierPublic:   c.cfg.PublicSubnetMask,
		tierNAT:      c.cfg.PrivateSubnetMask,
		tierIsolated: c.cfg.IsolatedSubnetMask,
	}
	counts := make(map[string]int)

	for _, id := range c.ofType(typeSubnet) {
		tier := c.subnetTiers()[id]
		counts[tier]++
		p := c.props(id)

		block, _ := p["CidrBlock"].(string)
		_, network, err := net.ParseCIDR(block)
		if err != nil {
			c.errorf("%s: CidrBlock %q is not a CIDR block", id, block)
			continue
		}
		if ones, _ := network.Mask.Size(); ones != masks[tier] {
			c.errorf("%s: %s subnet has mask /%d, configured /%d", id, tier, ones, masks[tier])
		}
		if tier == tierIsolated && p["MapPublicIpOnLaunch"] == true {
			c.errorf("%s: isolated subnet maps public IPs on launch", id)
		}
	}

	for _, tier := range []string{tierPublic, tierNAT, tierIsolated} {
		if counts[tier] != c.cfg.MaxAZs {
			c.warnf("%d %s subnets declared for %d availability zones", counts[tier], tier, c.cfg.MaxAZs)
		}
	}
}

func (c *checker) checkDatabasePlacement() {
	dbs := c.ofType(typeDBInstance)
	if len(dbs) == 0 {
		c.errorf("no database instance declared")
		return
	}

	for _, id := range dbs {
		p := c.props(id)
		if p["PubliclyAccessible"] != false {
			c.errorf("%s: PubliclyAccessible must be explicitly false", id)
		}

		group, ok := refTarget(p["DBSubnetGroupName"])
		if !ok || !c.isType(group, typeDBSubnetGroup) {
			c.errorf("%s: DBSubnetGroupName does not reference a declared subnet group", id)
			continue
		}
		subnets, _ := c.props(group)["SubnetIds"].([]any)
		if len(subnets) == 0 {
			c.errorf("%s: subnet group has no subnets", group)
		}
		for _, s := range subnets {
			subnet, _ := refTarget(s)
			if tier := c.subnetTiers()[subnet]; tier != tierIsolated {
				c.errorf("%s: database subnet %s is in the %s tier", group, subnet, tier)
			}
		}
	}
}

// appSecurityGroups returns the groups attached to the compute hosts.
func (c *checker) appSecurityGroups() map[string]bool {
	groups := make(map[string]bool)
	for _, id := range c.ofType(typeLaunchTemplate) {
		data, _ := c.props(id)["LaunchTemplateData"].(map[string]any)
		ids, _ := data["SecurityGroupIds"].([]any)
		for _, g := range ids {
			if target, ok := groupTarget(g); ok {
				groups[target] = true
			}
		}
	}
	return groups
}

type rule struct {
	origin string
	props  map[string]any
}

// rules collects inline and standalone rules of one direction for group.
func (c *checker) rules(group, inlineKey, standaloneType string) []rule {
	var out []rule
	inline, _ := c.props(group)[inlineKey].([]any)
	for i, r := range inline {
		if m, ok := r.(map[string]any); ok {
			out = append(out, rule{origin: fmt.Sprintf("%s.%s[%d]", group, inlineKey, i), props: m})
		}
	}
	for _, id := range c.ofType(standaloneType) {
		p := c.props(id)
		if target, ok := groupTarget(p["GroupId"]); ok && target == group {
			out = append(out, rule{origin: id, props: p})
		}
	}
	return out
}

func (c *checker) checkDatabaseSecurityGroup() {
	apps := c.appSecurityGroups()
	if len(apps) == 0 {
		c.errorf("no application security group attached to a launch template")
	}

	for _, db := range c.ofType(typeDBInstance) {
		p := c.props(db)
		port, _ := intValue(p["Port"])
		if port == 0 {
			port = 3306
		}

		groups, _ := p["VPCSecurityGroups"].([]any)
		if len(groups) == 0 {
			c.errorf("%s: no VPC security groups", db)
		}
		for _, g := range groups {
			sg, ok := groupTarget(g)
			if !ok || !c.isType(sg, typeSecurityGroup) {
				c.errorf("%s: security group %v is not declared in this stack", db, g)
				continue
			}
			c.checkDatabaseIngress(sg, apps, port)
			c.checkDatabaseEgress(sg)
		}
	}
}

func (c *checker) checkDatabaseIngress(sg string, apps map[string]bool, port int) {
	ingress := c.rules(sg, "SecurityGroupIngress", typeIngress)
	if len(ingress) != 1 {
		c.errorf("%s: database security group has %d ingress rules, want exactly 1", sg, len(ingress))
		return
	}

	r := ingress[0]
	source, ok := groupTarget(r.props["SourceSecurityGroupId"])
	if !ok || !apps[source] {
		c.errorf("%s: database ingress must come from the application security group", r.origin)
	}
	if _, hasCidr := r.props["CidrIp"]; hasCidr {
		c.errorf("%s: database ingress must not allow a CIDR range", r.origin)
	}
	from, _ := intValue(r.props["FromPort"])
	to, _ := intValue(r.props["ToPort"])
	if r.props["IpProtocol"] != "tcp" || from != port || to != port {
		c.errorf("%s: database ingress must be tcp/%d, got %v %d-%d", r.origin, port, r.props["IpProtocol"], from, to)
	}
}

func (c *checker) checkDatabaseEgress(sg string) {
	egress := c.rules(sg, "SecurityGroupEgress", typeEgress)
	if len(egress) == 0 {
		c.errorf("%s: database security group has no egress rules, so egress is unrestricted", sg)
		return
	}
	for _, r := range egress {
		if !c.isVPCCidr(r.props["CidrIp"]) {
			c.errorf("%s: database egress must be limited to the VPC CIDR, got %v", r.origin, r.props["CidrIp"])
		}
	}
}

func (c *checker) isVPCCidr(v any) bool {
	if s, ok := v.(string); ok {
		return s == c.cfg.VPCCIDR
	}
	target, attr, ok := getAttTarget(v)
	return ok && attr == "CidrBlock" && c.isType(target, typeVPC)
}

func (c *checker) checkCapacity() {
	asgs := c.ofType(typeASG)
	targets := c.ofType(typeScalableTarget)
	if len(asgs) != 1 || len(targets) != 1 {
		c.errorf("expected one autoscaling group and one scalable target, found %d and %d", len(asgs), len(targets))
		return
	}

	asg := c.props(asgs[0])
	asgMin, _ := intValue(asg["MinSize"])
	asgMax, _ := intValue(asg["MaxSize"])
	target := c.props(targets[0])
	minCap, _ := intValue(target["MinCapacity"])
	maxCap, _ := intValue(target["MaxCapacity"])

	if asgMin != minCap || asgMax != maxCap {
		c.errorf("%s (%d-%d) and %s (%d-%d) disagree on capacity", asgs[0], asgMin, asgMax, targets[0], minCap, maxCap)
	}
	if minCap > maxCap {
		c.errorf("%s: MinCapacity %d above MaxCapacity %d", targets[0], minCap, maxCap)
	}
	if minCap != c.cfg.MinCapacity || maxCap != c.cfg.MaxCapacity {
		c.errorf("%s: capacity %d-%d does not match configured %d-%d", targets[0], minCap, maxCap, c.cfg.MinCapacity, c.cfg.MaxCapacity)
	}

	for _, id := range c.ofType(typeService) {
		desired, _ := intValue(c.props(id)["DesiredCount"])
		if desired < minCap || desired > maxCap {
			c.errorf("%s: DesiredCount %d outside [%d, %d]", id, desired, minCap, maxCap)
		}
		if desired > asgMax {
			c.errorf("%s: DesiredCount %d exceeds the autoscaling group maximum %d", id, desired, asgMax)
		}
	}
}

func (c *checker) checkContainerEnvironment() {
	found := false
	for _, id := range c.ofType(typeTaskDefinition) {
		containers, _ := c.props(id)["ContainerDefinitions"].([]any)
		for _, ct := range containers {
			container, _ := ct.(map[string]any)
			env := namedValues(container["Environment"], "Value")
			host, ok := env[envDBHost]
			if !ok {
				continue
			}
			found = true
			name, _ := container["Name"].(string)
			c.checkDatabaseEnv(id+"/"+name, host, env, namedValues(container["Secrets"], "ValueFrom"))
		}
	}
	if !found {
		c.errorf("no container receives %s", envDBHost)
	}
}

func (c *checker) checkDatabaseEnv(where string, host any, env, secrets map[string]any) {
	db, attr, ok := getAttTarget(host)
	if !ok || attr != "Endpoint.Address" || !c.isType(db, typeDBInstance) {
		c.errorf("%s: %s must be the database endpoint address, got %v", where, envDBHost, host)
		return
	}
	p := c.props(db)

	if !reflect.DeepEqual(env[envDBUser], p["MasterUsername"]) {
		c.errorf("%s: %s %v does not match %s MasterUsername %v", where, envDBUser, env[envDBUser], db, p["MasterUsername"])
	}
	if !reflect.DeepEqual(env[envDBName], p["DBName"]) {
		c.errorf("%s: %s %v does not match %s DBName %v", where, envDBName, env[envDBName], db, p["DBName"])
	}

	if password, ok := env[envDBPassword]; ok {
		if !reflect.DeepEqual(password, p["MasterUserPassword"]) {
			c.errorf("%s: %s does not match %s MasterUserPassword", where, envDBPassword, db)
		}
		return
	}
	valueFrom, ok := secrets[envDBPassword]
	if !ok {
		c.errorf("%s: %s is neither an environment variable nor a secret", where, envDBPassword)
		return
	}
	container, okC := secretIdentity(valueFrom)
	instance, okI := secretIdentity(p["MasterUserPassword"])
	if !okC || !okI || container != instance {
		c.errorf("%s: %s secret %v does not match the secret behind %s MasterUserPassword", where, envDBPassword, valueFrom, db)
	}
}

func (c *checker) checkDNSAlias() {
	served := c.servingLoadBalancers()

	for _, id := range c.ofType(typeRecordSet) {
		alias, ok := c.props(id)["AliasTarget"].(map[string]any)
		if !ok {
			continue
		}
		if _, hasTTL := c.props(id)["TTL"]; hasTTL {
			c.errorf("%s: alias records must not set TTL", id)
		}

		var lb string
		for _, ref := range graph.References(alias["DNSName"]) {
			if ref.Attribute == "DNSName" && c.isType(ref.Target, typeLoadBalancer) {
				lb = ref.Target
			}
		}
		if lb == "" {
			c.errorf("%s: alias target is not a load balancer in this stack", id)
			continue
		}
		if zone, attr, ok := getAttTarget(alias["HostedZoneId"]); !ok || zone != lb || attr != "CanonicalHostedZoneID" {
			c.errorf("%s: alias hosted zone must be %s.CanonicalHostedZoneID", id, lb)
		}
		if !served[lb] {
			c.errorf("%s: alias target %s does not front the ECS service", id, lb)
		}
	}
}

// servingLoadBalancers returns the load balancers with a listener that
// forwards to a target group an ECS service registers with.
func (c *checker) servingLoadBalancers() map[string]bool {
	serviceGroups := make(map[string]bool)
	for _, id := range c.ofType(typeService) {
		lbs, _ := c.props(id)["LoadBalancers"].([]any)
		for _, l := range lbs {
			m, _ := l.(map[string]any)
			if tg, ok := refTarget(m["TargetGroupArn"]); ok {
				serviceGroups[tg] = true
			}
		}
	}

	out := make(map[string]bool)
	for _, id := range c.ofType(typeListener) {
		p := c.props(id)
		lb, ok := refTarget(p["LoadBalancerArn"])
		if !ok {
			continue
		}
		actions, _ := p["DefaultActions"].([]any)
		for _, a := range actions {
			m, _ := a.(map[string]any)
			if tg, ok := refTarget(m["TargetGroupArn"]); ok && serviceGroups[tg] {
				out[lb] = true
			}
		}
	}
	return out
}

func refTarget(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return "", false
	}
	target, ok := m["Ref"].(string)
	return target, ok
}

func getAttTarget(v any) (string, string, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return "", "", false
	}
	if _, ok := m["Fn::GetAtt"]; !ok {
		return "", "", false
	}
	refs := graph.References(m)
	if len(refs) != 1 {
		return "", "", false
	}
	return refs[0].Target, refs[0].Attribute, true
}

// groupTarget resolves a security group expression (Ref or GetAtt GroupId).
func groupTarget(v any) (string, bool) {
	if target, ok := refTarget(v); ok {
		return target, true
	}
	target, attr, ok := getAttTarget(v)
	return target, ok && attr == "GroupId"
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

// namedValues indexes a list of {Name, <key>} maps by Name.
func namedValues(v any, key string) map[string]any {
	out := make(map[string]any)
	list, _ := v.([]any)
	for _, item := range list {
		m, _ := item.(map[string]any)
		if name, ok := m["Name"].(string); ok {
			out[name] = m[key]
		}
	}
	return out
}

// secretIdentity extracts the secret a dynamic reference or an ECS
// valueFrom points at, normalized so that a name, a partial ARN and a full
// ARN of the same secret compare equal.
func secretIdentity(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	join, ok := m["Fn::Join"].([]any)
	if !ok || len(join) != 2 {
		return "", false
	}
	values, _ := join[1].([]any)
	for _, value := range values {
		if s, ok := value.(string); ok && (strings.HasPrefix(s, secretsManagerPrefix) || strings.HasPrefix(s, ":")) {
			continue
		}
		return normalizeSecret(value)
	}
	return "", false
}

func normalizeSecret(v any) (string, bool) {
	if target, ok := refTarget(v); ok {
		return "ref:" + target, true
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case map[string]any:
		s, _ = val["Fn::Sub"].(string)
	}
	if s == "" {
		return "", false
	}
	if _, name, ok := strings.Cut(s, ":secret:"); ok {
		return name, true
	}
	return s, true
}
