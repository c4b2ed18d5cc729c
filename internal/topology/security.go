package topology

import (
	"github.com/wpstack/wpstack/internal/stack"
	"github.com/wpstack/wpstack/resources/ec2"
)

// Ports used by the security rules.
const (
	HTTPPort          = 80
	MySQLPort         = 3306
	EphemeralPortLow  = 32768
	EphemeralPortHigh = 65535
)

// Physical security group names.
const (
	AppSecurityGroupName      = "wordpress-app"
	DatabaseSecurityGroupName = "wordpress-db"
)

type securityGroups struct {
	lb, app, db *stack.Declaration
}

// declareSecurity declares the three security groups. The database group
// accepts exactly one ingress rule, from the application group on the MySQL
// port, and only talks to addresses inside the VPC.
func (b *builder) declareSecurity() {
	st := b.stack
	vpc := b.net.vpc.Ref()

	lb := st.Add(LoadBalancerSGID, &ec2.SecurityGroup{
		GroupDescription: "wordpress-lb load balancer",
		VpcId:            vpc,
		SecurityGroupIngress: []ec2.SecurityGroup_Ingress{{
			IpProtocol:  "tcp",
			FromPort:    HTTPPort,
			ToPort:      HTTPPort,
			CidrIp:      "0.0.0.0/0",
			Description: "Allow from anyone on port 80",
		}},
		// Placeholder rule: a group without egress rules gets allow-all.
		SecurityGroupEgress: []ec2.SecurityGroup_Egress{{
			IpProtocol:  "icmp",
			FromPort:    252,
			ToPort:      86,
			CidrIp:      "255.255.255.255/32",
			Description: "Disallow all traffic",
		}},
	})

	app := st.Add(AppSGID, &ec2.SecurityGroup{
		GroupName:        AppSecurityGroupName,
		GroupDescription: "wordpress-app instances",
		VpcId:            vpc,
		SecurityGroupEgress: []ec2.SecurityGroup_Egress{{
			IpProtocol:  "-1",
			CidrIp:      "0.0.0.0/0",
			Description: "Allow all outbound traffic by default",
		}},
	})

	db := st.Add(DatabaseSGID, &ec2.SecurityGroup{
		GroupName:        DatabaseSecurityGroupName,
		GroupDescription: "wordpress-db database",
		VpcId:            vpc,
		SecurityGroupEgress: []ec2.SecurityGroup_Egress{{
			IpProtocol:  "-1",
			CidrIp:      b.net.vpc.GetAtt("CidrBlock"),
			Description: "Allow outbound traffic within the VPC only",
		}},
	})

	st.Add(LoadBalancerEgressID, &ec2.SecurityGroupEgress{
		GroupId:                    lb.GetAtt("GroupId"),
		IpProtocol:                 "tcp",
		FromPort:                   EphemeralPortLow,
		ToPort:                     EphemeralPortHigh,
		DestinationSecurityGroupId: app.GetAtt("GroupId"),
		Description:                "Load balancer to target",
	})
	st.Add(AppIngressID, &ec2.SecurityGroupIngress{
		GroupId:               app.GetAtt("GroupId"),
		IpProtocol:            "tcp",
		FromPort:              EphemeralPortLow,
		ToPort:                EphemeralPortHigh,
		SourceSecurityGroupId: lb.GetAtt("GroupId"),
		Description:           "Load balancer to target",
	})
	st.Add(DatabaseIngressID, &ec2.SecurityGroupIngress{
		GroupId:               db.GetAtt("GroupId"),
		IpProtocol:            "tcp",
		FromPort:              MySQLPort,
		ToPort:                MySQLPort,
		SourceSecurityGroupId: app.GetAtt("GroupId"),
		Description:           "Application to database",
	})

	b.name(app.ID, tierLabel[TierPrivate])
	b.name(db.ID, tierLabel[TierIsolated])

	b.sg = securityGroups{lb: lb, app: app, db: db}
}
