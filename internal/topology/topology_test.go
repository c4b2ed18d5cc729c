package topology

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/config"
	"github.com/wpstack/wpstack/internal/template"
)

func render(t *testing.T, mutate func(*config.Config)) (*Result, *wpstack.Template, []string) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	res, err := Build(cfg)
	require.NoError(t, err)

	builder := template.NewBuilder(res.Stack)
	tmpl, err := builder.Build()
	require.NoError(t, err)
	return res, tmpl, builder.Order()
}

func props(t *testing.T, tmpl *wpstack.Template, id string) map[string]any {
	t.Helper()
	r, ok := tmpl.Resources[id]
	require.True(t, ok, "resource %s not declared", id)
	return r.Properties
}

func ref(id string) map[string]any {
	return map[string]any{"Ref": id}
}

func getAtt(id, attr string) map[string]any {
	return map[string]any{"Fn::GetAtt": []any{id, attr}}
}

func ofType(tmpl *wpstack.Template, cfType string) []string {
	var ids []string
	for id, r := range tmpl.Resources {
		if r.Type == cfType {
			ids = append(ids, id)
		}
	}
	return ids
}

func TestBuild_Defaults(t *testing.T) {
	res, tmpl, order := render(t, nil)

	assert.Equal(t, 58, len(tmpl.Resources))
	assert.Len(t, order, len(tmpl.Resources))
	assert.Equal(t, Description, tmpl.Description)
	assert.Equal(t, config.CredentialGeneratedSecret, res.Credentials)
	assert.Equal(t, 30*60, int(res.RecordTTL.Seconds()))

	require.Contains(t, tmpl.Parameters, AmiParameterID)
	assert.Equal(t, EcsAmiParameter, tmpl.Parameters[AmiParameterID].Default)

	for _, name := range []string{
		OutputLoadBalancerDNS, OutputServiceURL, OutputDatabaseEndpoint,
		OutputNameServers, OutputDatabaseSecret,
	} {
		assert.Contains(t, tmpl.Outputs, name)
	}
	assert.Equal(t, "http://app.wordpress101.com", tmpl.Outputs[OutputServiceURL].Value)
	assert.Equal(t,
		map[string]any{"Fn::Join": []any{",", getAtt(HostedZoneID, "NameServers")}},
		tmpl.Outputs[OutputNameServers].Value)

	vpc := props(t, tmpl, VpcID)
	assert.Equal(t, "10.0.0.0/16", vpc["CidrBlock"])
	assert.Equal(t, true, vpc["EnableDnsHostnames"])
	assert.Equal(t, true, vpc["EnableDnsSupport"])
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MinCapacity = 5

	_, err := Build(cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestBuild_Idempotent(t *testing.T) {
	_, first, _ := render(t, nil)
	_, second, _ := render(t, nil)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("templates differ (-first +second):\n%s", diff)
	}

	a, err := template.ToJSON(first)
	require.NoError(t, err)
	b, err := template.ToJSON(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSubnets_DefaultAllocation(t *testing.T) {
	res, tmpl, _ := render(t, nil)

	want := map[string]string{
		SubnetID(TierPublic, 0):   "10.0.0.0/24",
		SubnetID(TierPublic, 1):   "10.0.1.0/24",
		SubnetID(TierPrivate, 0):  "10.0.2.0/24",
		SubnetID(TierPrivate, 1):  "10.0.3.0/24",
		SubnetID(TierIsolated, 0): "10.0.4.0/28",
		SubnetID(TierIsolated, 1): "10.0.4.16/28",
	}
	for id, cidr := range want {
		assert.Equal(t, cidr, props(t, tmpl, id)["CidrBlock"], id)
	}
	assert.Len(t, res.Subnets, 6)
	assert.Len(t, ofType(tmpl, "AWS::EC2::Subnet"), 6)
}

func TestSubnets_MasksMatchConfig(t *testing.T) {
	tests := []struct {
		name                     string
		vpc                      string
		azs                      int
		public, private, isolate int
	}{
		{"defaults", "10.0.0.0/16", 2, 24, 24, 28},
		{"three zones", "10.0.0.0/16", 3, 24, 24, 28},
		{"wide tiers", "172.16.0.0/16", 2, 20, 19, 24},
		{"small vpc", "192.168.0.0/24", 2, 27, 27, 28},
		{"uniform", "10.1.0.0/20", 3, 26, 26, 26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tmpl, _ := render(t, func(c *config.Config) {
				c.VPCCIDR = tt.vpc
				c.MaxAZs = tt.azs
				c.PublicSubnetMask = tt.public
				c.PrivateSubnetMask = tt.private
				c.IsolatedSubnetMask = tt.isolate
			})

			_, vpc, err := net.ParseCIDR(tt.vpc)
			require.NoError(t, err)

			masks := map[Tier]int{TierPublic: tt.public, TierPrivate: tt.private, TierIsolated: tt.isolate}
			for _, tier := range Tiers {
				for az := 0; az < tt.azs; az++ {
					p := props(t, tmpl, SubnetID(tier, az))
					_, block, err := net.ParseCIDR(p["CidrBlock"].(string))
					require.NoError(t, err)
					ones, _ := block.Mask.Size()
					assert.Equal(t, masks[tier], ones, "%s subnet %d", tier, az)
					assert.True(t, vpc.Contains(block.IP))

					mapsPublic := p["MapPublicIpOnLaunch"]
					if tier == TierIsolated {
						assert.Equal(t, false, mapsPublic, "isolated subnets never map public IPs")
					}
					if tier == TierPublic {
						assert.Equal(t, true, mapsPublic)
					}
				}
			}
		})
	}
}

func TestAllocateSubnets_NoRoom(t *testing.T) {
	_, err := AllocateSubnets("10.0.0.0/24", 2, map[Tier]int{
		TierPublic: 24, TierPrivate: 24, TierIsolated: 28,
	})
	assert.Error(t, err)
}

func TestAllocateSubnets_AlignsMixedMasks(t *testing.T) {
	blocks, err := AllocateSubnets("10.0.0.0/16", 1, map[Tier]int{
		TierPublic: 28, TierPrivate: 24, TierIsolated: 28,
	})
	require.NoError(t, err)

	var got []string
	for _, b := range blocks {
		got = append(got, b.CIDR.String())
	}
	assert.Equal(t, []string{"10.0.0.0/28", "10.0.1.0/24", "10.0.2.0/28"}, got)
}

func TestRouting(t *testing.T) {
	_, tmpl, _ := render(t, func(c *config.Config) {
		c.MaxAZs = 3
		c.NATGateways = 2
	})

	routes := ofType(tmpl, "AWS::EC2::Route")
	assert.Len(t, routes, 6, "3 public + 3 private default routes")

	for az := 0; az < 3; az++ {
		pub := props(t, tmpl, DefaultRouteID(TierPublic, az))
		assert.Equal(t, ref(InternetGatewayID), pub["GatewayId"])

		priv := props(t, tmpl, DefaultRouteID(TierPrivate, az))
		assert.Equal(t, ref(NatGatewayID(az%2)), priv["NatGatewayId"])
	}

	for _, id := range routes {
		rt := props(t, tmpl, id)["RouteTableId"].(map[string]any)["Ref"].(string)
		assert.False(t, strings.HasPrefix(rt, string(TierIsolated)), "isolated route table %s has a default route", rt)
	}

	assert.Len(t, ofType(tmpl, "AWS::EC2::NatGateway"), 2)
	nat := props(t, tmpl, NatGatewayID(1))
	assert.Equal(t, ref(SubnetID(TierPublic, 1)), nat["SubnetId"])
	assert.Equal(t, getAtt(NatEipID(1), "AllocationId"), nat["AllocationId"])
}

func TestAvailabilityZones(t *testing.T) {
	t.Run("GetAZs by default", func(t *testing.T) {
		_, tmpl, _ := render(t, nil)
		az := props(t, tmpl, SubnetID(TierPrivate, 1))["AvailabilityZone"]
		data, err := json.Marshal(az)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Fn::GetAZs")
	})

	t.Run("explicit zones", func(t *testing.T) {
		_, tmpl, _ := render(t, func(c *config.Config) {
			c.AvailabilityZones = []string{"eu-west-1a", "eu-west-1b", "eu-west-1c"}
		})
		assert.Equal(t, "eu-west-1b", props(t, tmpl, SubnetID(TierIsolated, 1))["AvailabilityZone"])
	})
}

func TestDatabaseSecurityGroup(t *testing.T) {
	_, tmpl, _ := render(t, nil)

	sg := props(t, tmpl, DatabaseSGID)
	assert.NotContains(t, sg, "SecurityGroupIngress", "no inline ingress on the database group")

	var ingress []map[string]any
	for _, id := range ofType(tmpl, "AWS::EC2::SecurityGroupIngress") {
		p := props(t, tmpl, id)
		if cmp.Equal(p["GroupId"], getAtt(DatabaseSGID, "GroupId")) {
			ingress = append(ingress, p)
		}
	}
	require.Len(t, ingress, 1, "exactly one ingress rule into the database group")
	rule := ingress[0]
	assert.Equal(t, getAtt(AppSGID, "GroupId"), rule["SourceSecurityGroupId"])
	assert.Equal(t, "tcp", rule["IpProtocol"])
	assert.Equal(t, int64(MySQLPort), rule["FromPort"])
	assert.Equal(t, int64(MySQLPort), rule["ToPort"])
	assert.NotContains(t, rule, "CidrIp")

	egress := sg["SecurityGroupEgress"].([]any)
	require.Len(t, egress, 1)
	assert.Equal(t, getAtt(VpcID, "CidrBlock"), egress[0].(map[string]any)["CidrIp"])

	for _, id := range ofType(tmpl, "AWS::EC2::SecurityGroupEgress") {
		assert.NotEqual(t, getAtt(DatabaseSGID, "GroupId"), props(t, tmpl, id)["GroupId"])
	}

	db := props(t, tmpl, DatabaseID)
	assert.Equal(t, []any{getAtt(DatabaseSGID, "GroupId")}, db["VPCSecurityGroups"])
}

func TestDatabaseInstance(t *testing.T) {
	_, tmpl, _ := render(t, nil)

	db := tmpl.Resources[DatabaseID]
	assert.Equal(t, wpstack.PolicyDelete, db.DeletionPolicy)
	assert.Equal(t, wpstack.PolicyDelete, db.UpdateReplacePolicy)
	assert.Equal(t, wpstack.PolicyDelete, tmpl.Resources[DBSubnetGroupID].DeletionPolicy)

	p := db.Properties
	assert.Equal(t, false, p["PubliclyAccessible"])
	assert.Equal(t, true, p["MultiAZ"])
	assert.Equal(t, "mysql", p["Engine"])
	assert.Equal(t, "8.0.30", p["EngineVersion"])
	assert.Equal(t, DBInstanceClass, p["DBInstanceClass"])
	assert.Equal(t, "10", p["AllocatedStorage"])
	assert.Equal(t, "3306", p["Port"])
	assert.Equal(t, ref(DBSubnetGroupID), p["DBSubnetGroupName"])

	group := props(t, tmpl, DBSubnetGroupID)
	assert.Equal(t, []any{ref(SubnetID(TierIsolated, 0)), ref(SubnetID(TierIsolated, 1))}, group["SubnetIds"])
}

func TestCapacityPairs(t *testing.T) {
	for _, pair := range [][2]int{{1, 1}, {1, 2}, {2, 5}, {3, 3}, {4, 10}} {
		t.Run(fmt.Sprintf("%d-%d", pair[0], pair[1]), func(t *testing.T) {
			_, tmpl, _ := render(t, func(c *config.Config) {
				c.MinCapacity = pair[0]
				c.MaxCapacity = pair[1]
			})

			asg := props(t, tmpl, AutoScalingGroupID)
			assert.Equal(t, strconv.Itoa(pair[0]), asg["MinSize"])
			assert.Equal(t, strconv.Itoa(pair[1]), asg["MaxSize"])
			assert.Equal(t, strconv.Itoa(pair[0]), asg["DesiredCapacity"])

			target := props(t, tmpl, ScalableTargetID)
			assert.Equal(t, int64(pair[0]), target["MinCapacity"])
			assert.Equal(t, int64(pair[1]), target["MaxCapacity"])

			service := props(t, tmpl, ServiceID)
			assert.Equal(t, int64(pair[0]), service["DesiredCount"])
		})
	}
}

func TestScalingPolicies(t *testing.T) {
	_, tmpl, _ := render(t, func(c *config.Config) {
		c.CPUTargetPercent = 65
		c.MemoryTargetPercent = 80
	})

	target := func(id string) any {
		p := props(t, tmpl, id)
		assert.Equal(t, "TargetTrackingScaling", p["PolicyType"])
		return p["TargetTrackingScalingPolicyConfiguration"].(map[string]any)["TargetValue"]
	}
	assert.Equal(t, float64(65), target(ServiceCPUPolicyID))
	assert.Equal(t, float64(80), target(ServiceMemoryPolicyID))

	host := props(t, tmpl, HostCPUPolicyID)["TargetTrackingConfiguration"].(map[string]any)
	assert.Equal(t, float64(HostCPUTargetPercent), host["TargetValue"])
}

func containerEnv(t *testing.T, tmpl *wpstack.Template) (map[string]any, map[string]any) {
	t.Helper()
	defs := props(t, tmpl, TaskDefinitionID)["ContainerDefinitions"].([]any)
	require.Len(t, defs, 1)
	container := defs[0].(map[string]any)
	assert.Equal(t, ContainerName, container["Name"])

	env := map[string]any{}
	if list, ok := container["Environment"].([]any); ok {
		for _, kv := range list {
			m := kv.(map[string]any)
			env[m["Name"].(string)] = m["Value"]
		}
	}
	secrets := map[string]any{}
	if list, ok := container["Secrets"].([]any); ok {
		for _, s := range list {
			m := s.(map[string]any)
			secrets[m["Name"].(string)] = m["ValueFrom"]
		}
	}
	return env, secrets
}

func TestContainerEnvironment_MatchesDatabase(t *testing.T) {
	t.Run("literal password", func(t *testing.T) {
		_, tmpl, _ := render(t, func(c *config.Config) {
			c.DBPassword = "c0rrect-Horse-battery"
		})
		env, secrets := containerEnv(t, tmpl)
		db := props(t, tmpl, DatabaseID)

		assert.Equal(t, getAtt(DatabaseID, "Endpoint.Address"), env[EnvDBHost])
		assert.Equal(t, db["MasterUsername"], env[EnvDBUser])
		assert.Equal(t, db["MasterUserPassword"], env[EnvDBPassword])
		assert.Equal(t, db["DBName"], env[EnvDBName])
		assert.Empty(t, secrets)
		assert.NotContains(t, tmpl.Resources, DatabaseSecretID)
	})

	t.Run("generated secret", func(t *testing.T) {
		_, tmpl, _ := render(t, nil)
		env, secrets := containerEnv(t, tmpl)
		db := props(t, tmpl, DatabaseID)

		assert.Equal(t, getAtt(DatabaseID, "Endpoint.Address"), env[EnvDBHost])
		assert.Equal(t, db["MasterUsername"], env[EnvDBUser])
		assert.Equal(t, db["DBName"], env[EnvDBName])
		assert.NotContains(t, env, EnvDBPassword)

		assert.Equal(t,
			map[string]any{"Fn::Join": []any{"", []any{ref(DatabaseSecretID), ":password::"}}},
			secrets[EnvDBPassword])
		assert.Equal(t,
			map[string]any{"Fn::Join": []any{"", []any{
				"{{resolve:secretsmanager:", ref(DatabaseSecretID), ":SecretString:password}}",
			}}},
			db["MasterUserPassword"])

		secret := props(t, tmpl, DatabaseSecretID)["GenerateSecretString"].(map[string]any)
		assert.Equal(t, `{"username":"wordpress"}`, secret["SecretStringTemplate"])
		assert.Equal(t, SecretPasswordKey, secret["GenerateStringKey"])

		attachment := props(t, tmpl, SecretAttachmentID)
		assert.Equal(t, ref(DatabaseID), attachment["TargetId"])

		execRole := props(t, tmpl, ExecutionRoleID)
		assert.Contains(t, execRole, "Policies")
	})

	t.Run("existing secret", func(t *testing.T) {
		_, tmpl, _ := render(t, func(c *config.Config) {
			c.DBPasswordSecretID = "prod/wordpress/db"
		})
		_, secrets := containerEnv(t, tmpl)
		db := props(t, tmpl, DatabaseID)

		assert.Equal(t,
			map[string]any{"Fn::Join": []any{"", []any{
				"{{resolve:secretsmanager:", "prod/wordpress/db", ":SecretString:password}}",
			}}},
			db["MasterUserPassword"])

		valueFrom, err := json.Marshal(secrets[EnvDBPassword])
		require.NoError(t, err)
		assert.Contains(t, string(valueFrom), ":secret:prod/wordpress/db")
		assert.NotContains(t, tmpl.Resources, DatabaseSecretID)
	})
}

func TestDNSRecord_TargetsServiceLoadBalancer(t *testing.T) {
	_, tmpl, _ := render(t, nil)

	record := props(t, tmpl, RecordID)
	assert.Equal(t, "app.wordpress101.com.", record["Name"])
	assert.Equal(t, "A", record["Type"])
	assert.Equal(t, ref(HostedZoneID), record["HostedZoneId"])
	assert.NotContains(t, record, "TTL", "alias records carry no TTL")

	alias := record["AliasTarget"].(map[string]any)
	assert.Equal(t,
		map[string]any{"Fn::Join": []any{"", []any{"dualstack.", getAtt(LoadBalancerID, "DNSName")}}},
		alias["DNSName"])
	assert.Equal(t, getAtt(LoadBalancerID, "CanonicalHostedZoneID"), alias["HostedZoneId"])

	// The service is attached to the target group the same load balancer forwards to.
	service := props(t, tmpl, ServiceID)
	lbs := service["LoadBalancers"].([]any)
	require.Len(t, lbs, 1)
	tg := lbs[0].(map[string]any)["TargetGroupArn"]

	listener := props(t, tmpl, ListenerID)
	assert.Equal(t, ref(LoadBalancerID), listener["LoadBalancerArn"])
	action := listener["DefaultActions"].([]any)[0].(map[string]any)
	assert.Equal(t, tg, action["TargetGroupArn"])

	zone := props(t, tmpl, HostedZoneID)
	assert.Equal(t, "wordpress101.com", zone["Name"])
}

func TestHealthCheck(t *testing.T) {
	_, tmpl, _ := render(t, nil)

	tg := props(t, tmpl, TargetGroupID)
	assert.Equal(t, "/", tg["HealthCheckPath"])
	assert.Equal(t, map[string]any{"HttpCode": "200-399"}, tg["Matcher"])
	assert.Equal(t, "instance", tg["TargetType"])
	assert.Equal(t, int64(80), tg["Port"])
}

func TestNameTags(t *testing.T) {
	_, tmpl, _ := render(t, nil)

	nameOf := func(id string) string {
		tags, _ := props(t, tmpl, id)["Tags"].([]any)
		for _, tag := range tags {
			m := tag.(map[string]any)
			if m["Key"] == NameTag {
				return m["Value"].(string)
			}
		}
		return ""
	}

	for az := 0; az < 2; az++ {
		assert.Equal(t, "Wordpress Ingress", nameOf(SubnetID(TierPublic, az)))
		assert.Equal(t, "Wordpress Ingress", nameOf(RouteTableID(TierPublic, az)))
		assert.Equal(t, "Wordpress Application", nameOf(SubnetID(TierPrivate, az)))
		assert.Equal(t, "Wordpress Application", nameOf(RouteTableID(TierPrivate, az)))
		assert.Equal(t, "Wordpress Database", nameOf(SubnetID(TierIsolated, az)))
		assert.Equal(t, "Wordpress Database", nameOf(RouteTableID(TierIsolated, az)))
	}
	assert.Equal(t, "Wordpress Ingress", nameOf(NatGatewayID(0)))
	assert.Equal(t, "Wordpress Ingress", nameOf(NatEipID(0)))
	assert.Equal(t, "Wordpress LB Ingress", nameOf(LoadBalancerID))
	assert.Equal(t, "Wordpress Application", nameOf(AppSGID))
	assert.Equal(t, "Wordpress Database", nameOf(DatabaseSGID))
	assert.Equal(t, "wordpress-vpc", nameOf(VpcID))
	assert.Equal(t, "", nameOf(LoadBalancerSGID))
}

func TestCreationOrder(t *testing.T) {
	_, _, order := render(t, nil)

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	before := [][2]string{
		{VpcID, SubnetID(TierPublic, 0)},
		{DatabaseID, TaskDefinitionID},
		{ListenerID, ServiceID},
		{ClusterAssociationID, ServiceID},
		{ServiceID, ScalableTargetID},
		{LoadBalancerID, RecordID},
		{NatGatewayID(0), AutoScalingGroupID},
		{DatabaseSecretID, DatabaseID},
	}
	for _, pair := range before {
		assert.Less(t, pos[pair[0]], pos[pair[1]], "%s before %s", pair[0], pair[1])
	}
}

func TestPhysicalNames(t *testing.T) {
	_, tmpl, _ := render(t, nil)

	assert.Equal(t, "wordpress-app", props(t, tmpl, AppSGID)["GroupName"])
	assert.Equal(t, "wordpress-db", props(t, tmpl, DatabaseSGID)["GroupName"])
	assert.NotContains(t, props(t, tmpl, LoadBalancerSGID), "GroupName")
	assert.Equal(t, "wordpress-db", props(t, tmpl, DBSubnetGroupID)["DBSubnetGroupName"])
	assert.Equal(t, "wordpress-db", props(t, tmpl, DatabaseID)["DBInstanceIdentifier"])
	assert.Equal(t, "Wordpress App ASG", props(t, tmpl, AutoScalingGroupID)["AutoScalingGroupName"])
	assert.Equal(t, "Wordpress-Cluster", props(t, tmpl, ClusterID)["ClusterName"])
	assert.Equal(t, "wordpress-app", props(t, tmpl, ServiceID)["ServiceName"])
}
